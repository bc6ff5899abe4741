package core

// EngineConfig holds runtime configuration for an engine backend.
type EngineConfig struct {
	StartEngines        int  // engines created eagerly by Load
	MaxEngines          int  // upper bound on live engines
	MaxUsagesPerEngine  int  // recycle an engine after this many leases (0 = never)
	ReuseEngines        bool // return engines to the pool instead of destroying them
	MemoryLimitMB       int  // per-engine heap limit (0 = engine default)
	AllowPrecompilation bool // cache compiled scripts across engines where supported
}
