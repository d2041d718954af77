package log

import (
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"onlineshop/internal/domain"
)

var base = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(jsonFormatter())
	return l
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{logrus.FieldKeyTime: "ts", logrus.FieldKeyMsg: "action"},
	}
}

// Setup configures the shared logger. format is "json" or "text".
func Setup(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	base.SetLevel(lvl)
	if out != nil {
		base.SetOutput(out)
	}
	if format == "text" {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(jsonFormatter())
	}
	return nil
}

func Logger() *logrus.Logger { return base }

// Component returns a logger tagged with the emitting component, for code
// that runs outside a request.
func Component(name string) *logrus.Entry {
	return base.WithField("component", name)
}

func fromCtx(c *fiber.Ctx, fields map[string]any) *logrus.Entry {
	e := base.WithFields(logrus.Fields(fields))
	if c == nil {
		return e
	}
	rf := logrus.Fields{
		"ip":     c.IP(),
		"method": c.Method(),
		"path":   c.Path(),
		"status": c.Response().StatusCode(),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		rf["req_id"] = rid
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		rf["user_id"] = u.ID
	}
	return e.WithFields(rf)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	fromCtx(c, fields).Info(action)
}

// Audit records a state change made on behalf of a caller.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	fromCtx(c, fields).WithField("audit", true).Info(action)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	fromCtx(c, fields).Warn(action)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	fromCtx(c, fields).WithError(err).Error(action)
}
