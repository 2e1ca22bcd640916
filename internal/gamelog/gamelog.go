// Package gamelog threads a structured logger through the engine the way
// the teacher threads its Options.Logger/log.Helper pair through pe.File:
// every component takes a *Helper built once at session construction, never
// a package-level global.
package gamelog

import "go.uber.org/zap"

// Helper is a thin wrapper that lets call sites log without caring whether
// a real logger was supplied.
type Helper struct {
	z *zap.SugaredLogger
}

// NewHelper wraps a *zap.Logger. A nil logger yields a no-op Helper.
func NewHelper(l *zap.Logger) *Helper {
	if l == nil {
		l = zap.NewNop()
	}
	return &Helper{z: l.Sugar()}
}

// NewNop returns a Helper that discards everything, for tests.
func NewNop() *Helper { return NewHelper(zap.NewNop()) }

// With returns a Helper with additional structured fields attached.
func (h *Helper) With(args ...interface{}) *Helper {
	return &Helper{z: h.z.With(args...)}
}

func (h *Helper) Debugf(tmpl string, args ...interface{}) { h.z.Debugf(tmpl, args...) }
func (h *Helper) Infof(tmpl string, args ...interface{})  { h.z.Infof(tmpl, args...) }
func (h *Helper) Warnf(tmpl string, args ...interface{})  { h.z.Warnf(tmpl, args...) }
func (h *Helper) Errorf(tmpl string, args ...interface{}) { h.z.Errorf(tmpl, args...) }

func (h *Helper) Debugw(msg string, keysAndValues ...interface{}) { h.z.Debugw(msg, keysAndValues...) }
func (h *Helper) Infow(msg string, keysAndValues ...interface{})  { h.z.Infow(msg, keysAndValues...) }
func (h *Helper) Warnw(msg string, keysAndValues ...interface{})  { h.z.Warnw(msg, keysAndValues...) }
func (h *Helper) Errorw(msg string, keysAndValues ...interface{}) { h.z.Errorw(msg, keysAndValues...) }
