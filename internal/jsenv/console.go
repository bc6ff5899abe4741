package jsenv

import (
	"github.com/cryguy/ssr/internal/core"
	"go.uber.org/zap"
)

// consoleJS builds a console object in JS that forwards every call to the
// Go-backed __ssr_console function.
const consoleJS = `
(function() {
	var levels = ['log', 'info', 'warn', 'error', 'debug', 'trace'];
	var con = {};
	for (var i = 0; i < levels.length; i++) {
		(function(lvl) {
			con[lvl] = function() {
				var parts = [];
				for (var j = 0; j < arguments.length; j++) {
					var arg = arguments[j];
					if (typeof arg === 'object' && arg !== null) {
						try { parts.push(JSON.stringify(arg)); }
						catch (e) { parts.push('[object Object]'); }
					} else {
						parts.push(String(arg));
					}
				}
				__ssr_console(lvl, parts.join(' '));
			};
		})(levels[i]);
	}
	con.dir = con.log;
	con.table = con.log;
	globalThis.console = con;
})();
`

// SetupConsole replaces globalThis.console with a version that writes to
// the given logger. Messages logged while rendering are tagged with
// source=js.
func SetupConsole(logger *zap.Logger) core.SetupFunc {
	log := logger.With(zap.String("source", "js"))
	return func(rt core.JSRuntime) error {
		if err := rt.RegisterFunc("__ssr_console", func(level, message string) {
			switch level {
			case "error":
				log.Error(message)
			case "warn":
				log.Warn(message)
			case "debug", "trace":
				log.Debug(message)
			default:
				log.Info(message)
			}
		}); err != nil {
			return err
		}
		return rt.Eval(consoleJS)
	}
}
