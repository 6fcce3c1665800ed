package pool

import (
	"reflect"

	"go.uber.org/zap"
)

// IsNil reports whether obj is nil or a typed nil.
func IsNil(obj Object) bool {
	if obj == nil {
		return true
	}

	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func isPointer(obj Object) bool {
	return reflect.TypeOf(obj).Kind() == reflect.Ptr
}

// isZeroSize reports whether obj points to a zero-size value. Every such
// pointer may share one address, so the pool cannot tell instances apart.
func isZeroSize(obj Object) bool {
	return reflect.TypeOf(obj).Elem().Size() == 0
}

// compatible reports whether an instance of type t may live in this pool.
func (p *ObjectPool) compatible(t TypeID) bool {
	if p.declared == "" {
		return false
	}
	if t == p.declared {
		return true
	}
	return p.types != nil && IsA(p.types, t, p.declared)
}

func (p *ObjectPool) tracked(obj Object) bool {
	if _, ok := p.inUse[obj]; ok {
		return true
	}
	_, ok := p.availableIdx[obj]
	return ok
}

func (p *ObjectPool) pushAvailable(obj Object) {
	p.availableIdx[obj] = len(p.available)
	p.available = append(p.available, obj)
}

func (p *ObjectPool) popAvailable() Object {
	last := len(p.available) - 1
	obj := p.available[last]
	p.available[last] = nil
	p.available = p.available[:last]
	delete(p.availableIdx, obj)
	return obj
}

// removeAvailable swaps the last element into obj's slot.
func (p *ObjectPool) removeAvailable(obj Object) bool {
	idx, ok := p.availableIdx[obj]
	if !ok {
		return false
	}

	last := len(p.available) - 1
	if idx != last {
		moved := p.available[last]
		p.available[idx] = moved
		p.availableIdx[moved] = idx
	}
	p.available[last] = nil
	p.available = p.available[:last]
	delete(p.availableIdx, obj)
	return true
}

// dropAvailable forgets up to n free instances and returns how many it dropped.
func (p *ObjectPool) dropAvailable(n int) int {
	n = min(n, len(p.available))
	for range n {
		p.popAvailable()
	}
	return n
}

func (p *ObjectPool) touch() {
	p.stats.LastAccess = p.now()
}

func (p *ObjectPool) logDebug(msg string, fields ...zap.Field) {
	if p.config.EnableDebugLogging {
		p.log.Debug(msg, append(fields, zap.String("type", string(p.declared)))...)
	}
}
