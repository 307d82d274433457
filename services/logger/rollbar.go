// Package logsvc reports log entries to Rollbar and mirrors them on a std logger.
package logsvc

import (
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/auth"
	"github.com/trezcool/schooldesk/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{"app": conf.AppName, "storage": conf.Database.Engine})
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is one log call split into what Rollbar wants.
type entry struct {
	msg    string
	err    error
	person *user.User
	extras map[string]interface{}
}

// newEntry sorts args: the first error is reported with its stack, the first
// user becomes the Rollbar person, sessions & maps end up in the extras.
func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extras: make(map[string]interface{})}
	setPerson := func(usr user.User) {
		if e.person != nil {
			return
		}
		e.person = &usr
		e.extras["role"] = string(usr.Role)
		if usr.ClassNumber.Valid {
			e.extras["class"] = usr.ClassNumber.Int
		}
	}

	for i, arg := range args {
		switch a := arg.(type) {
		case nil:
		case error:
			if e.err == nil {
				e.err = a
			} else {
				e.extras[fmt.Sprintf("error_%d", i)] = a.Error()
			}
		case user.User:
			setPerson(a)
		case *user.User:
			if a != nil {
				setPerson(*a)
			}
		case auth.Session:
			e.extras["session_id"] = a.ID
		case *auth.Session:
			if a != nil {
				e.extras["session_id"] = a.ID
			}
		case map[string]interface{}:
			for k, v := range a {
				e.extras[k] = v
			}
		default:
			e.extras[fmt.Sprintf("arg_%d", i)] = fmt.Sprintf("%+v", a)
		}
	}
	return e
}

// report lists the rollbar arguments. Rollbar drops the message when an error is
// given, so it then travels in the extras.
func (e entry) report() []interface{} {
	out := make([]interface{}, 0, 3)
	if e.err != nil {
		out = append(out, e.err)
		e.extras["message"] = e.msg
	} else {
		out = append(out, e.msg)
	}
	if len(e.extras) > 0 {
		out = append(out, e.extras)
	}
	return out
}

// lines is what goes to the std logger; users are never dumped whole.
func (e entry) lines() []string {
	out := []string{e.msg}
	if e.err != nil {
		out = append(out, fmt.Sprintf("%+v", e.err))
	}
	if e.person != nil {
		out = append(out, fmt.Sprintf("user %s <%s> (%s)", e.person.ID, e.person.Email, e.person.Role))
	}
	return out
}

func (l RollbarLogger) log(level string, msg string, args []interface{}) entry {
	e := newEntry(msg, args)
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.FullName, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.report()...)
	for _, line := range e.lines() {
		l.std.Println(line)
	}
	return e
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
