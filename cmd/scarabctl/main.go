package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/scarab-term/scarab/internal/control"
	"github.com/scarab-term/scarab/internal/protocol"
	"github.com/scarab-term/scarab/internal/shm"
)

// Version info set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `scarabctl - control a running scarabd

Usage:
  scarabctl [flags] <command> [args]

Commands:
  list                       list sessions
  create [name [cols rows]]  create a session
  delete <id>                delete a session
  attach <id>                attach to a session
  detach <id>                detach from a session
  rename <id> <name>         rename a session
  input <id> <text>          send input to a session
  resize <id> <cols> <rows>  resize a session
  snapshot                   dump the shared-memory grid as text
  ping                       check the daemon is alive
  version                    print version

Flags:
  -socket path               control socket (default ` + protocol.DefaultSocketPath + `)
  -shmem path                shared memory region (default ` + protocol.DefaultShmemPath + `)
  -cols n, -rows n           grid size of the daemon's region, for snapshot
`

func main() {
	socketPath := flag.String("socket", defaultSocket(), "control socket path")
	shmemPath := flag.String("shmem", defaultShmem(), "shared memory path")
	cols := flag.Int("cols", defaultDim(protocol.EnvCols, protocol.DefaultGridWidth), "daemon grid columns")
	rows := flag.Int("rows", defaultDim(protocol.EnvRows, protocol.DefaultGridHeight), "daemon grid rows")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "version":
		fmt.Printf("scarabctl %s (commit: %s, built: %s)\n", version, commit, date)
		return
	case "snapshot":
		if err := dumpSnapshot(*shmemPath, *cols, *rows); err != nil {
			fatal(err)
		}
		return
	}

	req, err := buildRequest(cmd, rest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scarabctl: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	client, err := control.Dial(*socketPath)
	if err != nil {
		fatal(err)
	}
	defer client.Close()

	resp, err := client.Do(req)
	if err != nil {
		fatal(err)
	}
	printResponse(resp)
}

func buildRequest(cmd string, args []string) (*protocol.Request, error) {
	switch cmd {
	case "list":
		return &protocol.Request{Type: protocol.MsgList}, nil
	case "ping":
		return &protocol.Request{Type: protocol.MsgPing}, nil
	case "create":
		req := &protocol.Request{Type: protocol.MsgCreate}
		if len(args) > 0 {
			req.Name = args[0]
		}
		if len(args) == 3 {
			cols, err := strconv.Atoi(args[1])
			if err != nil || cols <= 0 {
				return nil, fmt.Errorf("invalid cols %q", args[1])
			}
			rows, err := strconv.Atoi(args[2])
			if err != nil || rows <= 0 {
				return nil, fmt.Errorf("invalid rows %q", args[2])
			}
			req.Cols, req.Rows = cols, rows
		} else if len(args) > 1 {
			return nil, fmt.Errorf("create takes a name and optionally cols and rows")
		}
		return req, nil
	case "delete", "attach", "detach":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s requires a session id", cmd)
		}
		types := map[string]string{
			"delete": protocol.MsgDelete,
			"attach": protocol.MsgAttach,
			"detach": protocol.MsgDetach,
		}
		return &protocol.Request{Type: types[cmd], ID: args[0]}, nil
	case "rename":
		if len(args) != 2 {
			return nil, fmt.Errorf("rename requires a session id and a new name")
		}
		return &protocol.Request{Type: protocol.MsgRename, ID: args[0], NewName: args[1]}, nil
	case "input":
		if len(args) != 2 {
			return nil, fmt.Errorf("input requires a session id and text")
		}
		return &protocol.Request{Type: protocol.MsgInput, ID: args[0], Data: []byte(args[1])}, nil
	case "resize":
		if len(args) != 3 {
			return nil, fmt.Errorf("resize requires a session id, cols, and rows")
		}
		cols, err := strconv.Atoi(args[1])
		if err != nil || cols <= 0 {
			return nil, fmt.Errorf("invalid cols %q", args[1])
		}
		rows, err := strconv.Atoi(args[2])
		if err != nil || rows <= 0 {
			return nil, fmt.Errorf("invalid rows %q", args[2])
		}
		return &protocol.Request{Type: protocol.MsgResize, ID: args[0], Cols: cols, Rows: rows}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func printResponse(resp *protocol.Response) {
	switch resp.Type {
	case protocol.RespList:
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSIZE\tCLIENTS\tCREATED\tSTATE")
		for _, s := range resp.Sessions {
			state := "ok"
			if s.ErrorMode {
				state = "error"
			}
			fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%s\t%s\n",
				s.ID, s.Name, s.Cols, s.Rows, s.AttachedClients,
				s.CreatedAt.Local().Format(time.DateTime), state)
		}
		w.Flush()
	case protocol.RespPong:
		fmt.Println("pong")
	default:
		if resp.ID != "" {
			fmt.Printf("%s %s\n", resp.Type, resp.ID)
		} else {
			fmt.Println(resp.Type)
		}
	}
}

func dumpSnapshot(path string, cols, rows int) error {
	region, err := shm.Open(path, cols, rows)
	if err != nil {
		return err
	}
	defer region.Close()

	reader := shm.NewReader(region)
	snap, err := reader.Snapshot()
	if err != nil {
		return err
	}

	for y := 0; y < snap.Height; y++ {
		line := make([]rune, 0, snap.Width)
		for x := 0; x < snap.Width; x++ {
			cell := snap.CellAt(x, y)
			if cell.Codepoint == 0 {
				continue
			}
			line = append(line, rune(cell.Codepoint))
		}
		fmt.Println(string(line))
	}
	fmt.Printf("cursor=(%d,%d) errorMode=%v\n", snap.CursorX, snap.CursorY, snap.ErrorMode)
	return nil
}

func defaultSocket() string {
	if v := os.Getenv(protocol.EnvSocketPath); v != "" {
		return v
	}
	return protocol.DefaultSocketPath
}

func defaultShmem() string {
	if v := os.Getenv(protocol.EnvShmemPath); v != "" {
		return v
	}
	return protocol.DefaultShmemPath
}

func defaultDim(env string, fallback int) int {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "scarabctl: %v\n", err)
	os.Exit(1)
}
