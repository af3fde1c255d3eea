package wazero

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tetratelabs/wazero/api"

	rlog "github.com/reglet-dev/reglet-extensions/log"
)

// LogMessageExport is the host function guests call to log.
const LogMessageExport = "log_message"

// LogMessageHandler returns the log_message host function. The guest
// passes a packed pointer to a JSON rlog.LogMessageWire; the record is
// replayed on logger with the plugin name attached. Guest metric events
// travel this way too, so a metrics.Collector on logger sees them.
func LogMessageHandler(logger *slog.Logger) CustomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return CustomHandler{
		Name: LogMessageExport,
		Handler: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ptr, length := UnpackPtrLen(stack[0])
			payload, err := ReadBytes(mod.Memory(), ptr, length)
			if err != nil {
				logger.WarnContext(ctx, "wazero: failed to read guest log message", "error", err)
				return
			}

			var msg rlog.LogMessageWire
			if err := json.Unmarshal(payload, &msg); err != nil {
				attrs := append(callerAttrs(ctx, mod), slog.String("payload", string(payload)))
				logger.LogAttrs(ctx, slog.LevelInfo, "plugin log (raw)", attrs...)
				return
			}

			attrs := append(msg.SlogAttrs(), callerAttrs(ctx, mod)...)
			logger.LogAttrs(ctx, msg.SlogLevel(), msg.Message, attrs...)
		}),
		ParamTypes:  []api.ValueType{api.ValueTypeI64},
		ResultTypes: []api.ValueType{},
	}
}
