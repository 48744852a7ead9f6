package log

import "go.uber.org/zap"

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global      *SubLogger
	ConfigMgr   *SubLogger
	DatabaseMgr *SubLogger
	TWAP        *SubLogger
	Portfolio   *SubLogger
	ExchangeSys *SubLogger
	RESTSys     *SubLogger
)

// SubLogger defines a sub logger that can be enabled or disabled per level
// and routed to its own output
type SubLogger struct {
	name   string
	levels Levels
	logger *zap.SugaredLogger
}

// Name returns the upper case name of the sub logger
func (sl *SubLogger) Name() string {
	if sl == nil {
		return ""
	}
	return sl.name
}

// GetLevels returns a copy of the enabled levels
func (sl *SubLogger) GetLevels() Levels {
	mu.RLock()
	defer mu.RUnlock()
	if sl == nil {
		return Levels{}
	}
	return sl.levels
}
