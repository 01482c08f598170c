package logging

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// frames between write and the call site of a Logger method.
const callerSkip = 3

var errUnpairedKey = errors.New("unpaired log key")

// planLogger fans the entries of the planner out to its appenders.
type planLogger struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

func newPlanLogger(name string, level Level, inUTC bool, appenders ...Appender) *planLogger {
	return &planLogger{name: name, level: NewAtomicLevelAt(level), inUTC: inUTC, appenders: appenders}
}

func (l *planLogger) Debugf(template string, args ...interface{}) { l.logf(DEBUG, template, args) }
func (l *planLogger) Infof(template string, args ...interface{}) { l.logf(INFO, template, args) }
func (l *planLogger) Warnf(template string, args ...interface{}) { l.logf(WARN, template, args) }
func (l *planLogger) Errorf(template string, args ...interface{}) { l.logf(ERROR, template, args) }

func (l *planLogger) Infow(msg string, keysAndValues ...interface{}) { l.logw(INFO, msg, keysAndValues) }

func (l *planLogger) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *planLogger) Level() zapcore.Level {
	return l.level.Get().AsZap()
}

func (l *planLogger) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return newPlanLogger(name, l.level.Get(), l.inUTC, slices.Clone(l.appenders)...)
}

func (l *planLogger) AddAppender(appender Appender) {
	l.appenders = append(l.appenders, appender)
}

func (l *planLogger) Sync() error {
	var err error
	for _, appender := range l.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

func (l *planLogger) logf(level Level, template string, args []interface{}) {
	if level < l.level.Get() {
		return
	}
	l.write(level, fmt.Sprintf(template, args...), nil)
}

func (l *planLogger) logw(level Level, msg string, keysAndValues []interface{}) {
	if level < l.level.Get() {
		return
	}
	l.write(level, msg, fieldsOf(keysAndValues))
}

// write hands the entry to every appender. Appender failures can only go to stderr.
func (l *planLogger) write(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
		Caller:     zapcore.NewEntryCaller(runtime.Caller(callerSkip)),
	}
	if l.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range l.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// fieldsOf pairs up keys and values. A trailing key without a value is kept with an error value.
func fieldsOf(keysAndValues []interface{}) []zapcore.Field {
	return lo.Map(lo.Chunk(keysAndValues, 2), func(kv []interface{}, _ int) zapcore.Field {
		key := fmt.Sprint(kv[0])
		if len(kv) < 2 {
			return zap.Any(key, errUnpairedKey)
		}
		return zap.Any(key, kv[1])
	})
}
