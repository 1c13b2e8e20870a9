// Package program maps names to runnable kernel tasks. Programs come in
// two kinds: Go tasks registered directly, and Lua scripts compiled into
// tasks that run inside a sandboxed interpreter with a small `sys` module
// bridging the kernel's system calls.
//
// A Registry is the unit of composition: boot manifests resolve program
// names against it, and a directory Watcher can keep it in sync with a
// folder of .lua files, re-registering a program whenever its script
// changes on disk.
//
//	reg := program.NewRegistry(logger)
//	reg.Register("producer", produceTask)
//	_ = program.LoadDir(reg, "programs")
//
// Lua programs see their argument blob as the global string `arg` and
// report their exit status by returning a number:
//
//	local sys = require("sys")
//	local r, w = sys.pipe()
//	sys.write(w, "hello")
//	return 0
package program
