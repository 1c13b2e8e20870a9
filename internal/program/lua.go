package program

import (
	"errors"
	"io"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/akislouk/operating-systems-project/internal/kernel"
)

// LuaTask compiles a Lua script into a kernel task. Every run builds a
// fresh sandboxed interpreter, so concurrently running processes of the
// same program never share state. The script sees its argument blob as
// the global string `arg` and reports its exit status by returning a
// number; a script error exits with status 255.
//
// The `sys` module exposes the system-call surface. Calls follow the
// usual Lua convention: results on success, nil plus an error message on
// failure. sys.read returns nil without a message at end of stream.
func LuaTask(reg *Registry, name, source string) kernel.Task {
	return func(sys *kernel.Sys, args []byte) int {
		L := lua.NewState(lua.Options{SkipOpenLibs: true})
		defer L.Close()
		openSafeLibraries(L)
		L.PreloadModule("sys", sysLoader(reg, sys))
		L.SetGlobal("arg", lua.LString(args))

		if err := L.DoString(source); err != nil {
			reg.log.Error("program failed name=%s pid=%d: %v", name, sys.GetPid(), err)
			return 255
		}
		if L.GetTop() >= 1 {
			if status, ok := L.Get(-1).(lua.LNumber); ok {
				return int(status)
			}
		}
		return 0
	}
}

// openSafeLibraries opens the side-effect-free parts of the Lua stdlib
// and strips the loaders that could reach outside the sandbox.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// sysLoader builds the require("sys") module bound to one syscall handle.
func sysLoader(reg *Registry, sys *kernel.Sys) lua.LGFunction {
	return func(L *lua.LState) int {
		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"getpid": func(L *lua.LState) int {
				L.Push(lua.LNumber(sys.GetPid()))
				return 1
			},
			"getppid": func(L *lua.LState) int {
				L.Push(lua.LNumber(sys.GetPPid()))
				return 1
			},
			"exec": func(L *lua.LState) int {
				name := L.CheckString(1)
				args := L.OptString(2, "")
				task, err := reg.Lookup(name)
				if err != nil {
					return pushErr(L, err)
				}
				pid, err := sys.Exec(task, []byte(args))
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LNumber(pid))
				return 1
			},
			"wait": func(L *lua.LState) int {
				pid := kernel.Pid(L.OptInt(1, int(kernel.AnyChild)))
				child, status, err := sys.WaitChild(pid)
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LNumber(child))
				L.Push(lua.LNumber(status))
				return 2
			},
			"exit": func(L *lua.LState) int {
				sys.Exit(L.OptInt(1, 0))
				return 0 // unreachable
			},
			"pipe": func(L *lua.LState) int {
				r, w, err := sys.Pipe()
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LNumber(r))
				L.Push(lua.LNumber(w))
				return 2
			},
			"socket": func(L *lua.LState) int {
				fid, err := sys.Socket(kernel.Port(L.CheckInt(1)))
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LNumber(fid))
				return 1
			},
			"listen": func(L *lua.LState) int {
				if err := sys.Listen(kernel.Fid(L.CheckInt(1))); err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LTrue)
				return 1
			},
			"accept": func(L *lua.LState) int {
				fid, err := sys.Accept(kernel.Fid(L.CheckInt(1)))
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LNumber(fid))
				return 1
			},
			"connect": func(L *lua.LState) int {
				fid := kernel.Fid(L.CheckInt(1))
				port := kernel.Port(L.CheckInt(2))
				timeout := time.Duration(L.OptInt(3, 0)) * time.Millisecond
				if err := sys.Connect(fid, port, timeout); err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LTrue)
				return 1
			},
			"shutdown": func(L *lua.LState) int {
				fid := kernel.Fid(L.CheckInt(1))
				var mode kernel.ShutdownMode
				switch L.CheckString(2) {
				case "read":
					mode = kernel.ShutdownRead
				case "write":
					mode = kernel.ShutdownWrite
				case "both":
					mode = kernel.ShutdownBoth
				default:
					return pushErr(L, kernel.ErrBadShutdownMode)
				}
				if err := sys.ShutDown(fid, mode); err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LTrue)
				return 1
			},
			"read": func(L *lua.LState) int {
				fid := kernel.Fid(L.CheckInt(1))
				buf := make([]byte, L.CheckInt(2))
				n, err := sys.Read(fid, buf)
				if errors.Is(err, io.EOF) {
					L.Push(lua.LNil)
					return 1
				}
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LString(buf[:n]))
				return 1
			},
			"write": func(L *lua.LState) int {
				fid := kernel.Fid(L.CheckInt(1))
				n, err := sys.Write(fid, []byte(L.CheckString(2)))
				if err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LNumber(n))
				return 1
			},
			"close": func(L *lua.LState) int {
				if err := sys.Close(kernel.Fid(L.CheckInt(1))); err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LTrue)
				return 1
			},
			"dup2": func(L *lua.LState) int {
				oldf := kernel.Fid(L.CheckInt(1))
				newf := kernel.Fid(L.CheckInt(2))
				if err := sys.Dup2(oldf, newf); err != nil {
					return pushErr(L, err)
				}
				L.Push(lua.LTrue)
				return 1
			},
		})
		L.Push(mod)
		return 1
	}
}

// pushErr pushes the Lua-convention failure pair (nil, message).
func pushErr(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}
