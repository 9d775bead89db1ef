// File: service/module.go
// License: Apache-2.0
//
// Module and ModuleRegistry are grounded on the original
// include/module/module.h Module/BaseModule/ModuleFactory shapes, with
// one addition the original never had: dependency edges between
// modules and DFS-based cycle detection before Init runs any of them.
// The original source registers modules by name only and has no edge
// concept at all.

package service

import (
	"time"

	"github.com/nextgenrt/netkernel/errs"
)

// Module is a pluggable unit of functionality owned by a service.
// Implementations embed NopModule and override what they need.
type Module interface {
	Name() string
	Init() errs.Result[errs.Void]
	Start() errs.Result[errs.Void]
	Stop() errs.Result[errs.Void]
	Update(elapsed time.Duration)
}

// NopModule is an embeddable Module with no-op lifecycle hooks; only
// Name needs overriding.
type NopModule struct{ ModuleName string }

func (m NopModule) Name() string                     { return m.ModuleName }
func (m NopModule) Init() errs.Result[errs.Void]      { return errs.OkVoid() }
func (m NopModule) Start() errs.Result[errs.Void]     { return errs.OkVoid() }
func (m NopModule) Stop() errs.Result[errs.Void]      { return errs.OkVoid() }
func (m NopModule) Update(elapsed time.Duration)      {}

// ModuleRegistry owns the set of modules attached to a service plus
// the dependency edges between them. Modules are initialized and
// started in dependency order (dependencies before dependents) and
// stopped in reverse order.
type ModuleRegistry struct {
	modules map[string]Module
	deps    map[string]map[string]struct{} // module -> set of modules it depends on
	order   []string                        // resolved topological order, computed lazily
}

func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules: make(map[string]Module),
		deps:    make(map[string]map[string]struct{}),
	}
}

// Register adds a module under its own Name(). Returns
// ModuleAlreadyExists if the name is taken.
func (r *ModuleRegistry) Register(m Module) errs.Result[errs.Void] {
	if _, exists := r.modules[m.Name()]; exists {
		return errs.Fail[errs.Void](errs.ModuleAlreadyExists, "module already registered: "+m.Name())
	}
	r.modules[m.Name()] = m
	r.deps[m.Name()] = make(map[string]struct{})
	r.order = nil
	return errs.OkVoid()
}

// Get returns the module registered under name, if any.
func (r *ModuleRegistry) Get(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// AddDependency records that module depends on dependsOn: dependsOn
// must be initialized and started before module. Both names must
// already be registered. Returns CircularDependency if adding this
// edge would create a cycle, without mutating the registry.
func (r *ModuleRegistry) AddDependency(module, dependsOn string) errs.Result[errs.Void] {
	if _, ok := r.modules[module]; !ok {
		return errs.Fail[errs.Void](errs.ModuleNotFound, "module not found: "+module)
	}
	if _, ok := r.modules[dependsOn]; !ok {
		return errs.Fail[errs.Void](errs.ModuleNotFound, "module not found: "+dependsOn)
	}

	// Probe for a cycle: adding module -> dependsOn creates one iff
	// dependsOn can already reach module.
	if r.reaches(dependsOn, module) {
		return errs.Fail[errs.Void](errs.CircularDependency, module+" -> "+dependsOn+" would create a cycle")
	}

	r.deps[module][dependsOn] = struct{}{}
	r.order = nil
	return errs.OkVoid()
}

// reaches reports whether a DFS from `from` can reach `to` along
// dependency edges.
func (r *ModuleRegistry) reaches(from, to string) bool {
	if from == to {
		return true
	}
	visited := make(map[string]bool)
	var dfs func(node string) bool
	dfs = func(node string) bool {
		if node == to {
			return true
		}
		if visited[node] {
			return false
		}
		visited[node] = true
		for next := range r.deps[node] {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

// topoSort computes an initialization order where every module appears
// after all modules it depends on. Returns CircularDependency if the
// dependency graph (which should already be acyclic thanks to
// AddDependency's check) somehow contains a cycle.
func (r *ModuleRegistry) topoSort() ([]string, *errs.Error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(r.modules))
	order := make([]string, 0, len(r.modules))

	var visit func(name string) *errs.Error
	visit = func(name string) *errs.Error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return errs.New(errs.CircularDependency, "cycle detected at module "+name)
		}
		state[name] = visiting
		for dep := range r.deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for name := range r.modules {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (r *ModuleRegistry) resolvedOrder() ([]string, *errs.Error) {
	if r.order != nil {
		return r.order, nil
	}
	order, err := r.topoSort()
	if err != nil {
		return nil, err
	}
	r.order = order
	return order, nil
}

func (r *ModuleRegistry) InitAll() errs.Result[errs.Void] {
	order, err := r.resolvedOrder()
	if err != nil {
		return errs.FailErr[errs.Void](err)
	}
	for _, name := range order {
		if res := r.modules[name].Init(); res.HasError() {
			return res
		}
	}
	return errs.OkVoid()
}

func (r *ModuleRegistry) StartAll() errs.Result[errs.Void] {
	order, err := r.resolvedOrder()
	if err != nil {
		return errs.FailErr[errs.Void](err)
	}
	for _, name := range order {
		if res := r.modules[name].Start(); res.HasError() {
			return res
		}
	}
	return errs.OkVoid()
}

// StopAll stops modules in reverse dependency order (dependents before
// their dependencies), continuing even if an individual Stop fails so
// every module gets a chance to release resources, and reporting the
// first error encountered.
func (r *ModuleRegistry) StopAll() errs.Result[errs.Void] {
	order, err := r.resolvedOrder()
	if err != nil {
		return errs.FailErr[errs.Void](err)
	}
	var first *errs.Error
	for i := len(order) - 1; i >= 0; i-- {
		if res := r.modules[order[i]].Stop(); res.HasError() && first == nil {
			first = res.Err()
		}
	}
	if first != nil {
		return errs.FailErr[errs.Void](first)
	}
	return errs.OkVoid()
}

// Remove deletes name from the registry along with any dependency
// edges referencing it in either direction. Returns ModuleNotFound if
// name isn't registered. Remove has no notion of "running" a module
// down first — callers that need stop-then-delete semantics (see
// Base.RemoveModule) call Stop themselves before Remove.
func (r *ModuleRegistry) Remove(name string) errs.Result[errs.Void] {
	if _, ok := r.modules[name]; !ok {
		return errs.Fail[errs.Void](errs.ModuleNotFound, "module not found: "+name)
	}
	delete(r.modules, name)
	delete(r.deps, name)
	for _, set := range r.deps {
		delete(set, name)
	}
	r.order = nil
	return errs.OkVoid()
}

func (r *ModuleRegistry) UpdateAll(elapsed time.Duration) {
	for _, m := range r.modules {
		m.Update(elapsed)
	}
}
