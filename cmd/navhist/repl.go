package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/navhist/internal/errors"
	"github.com/vango-dev/navhist/pkg/history"
)

const replHelp = `Commands:
  push <path> [value]     add an entry
  replace <path> [value]  overwrite the current entry
  go <delta>              move through the stack
  back | forward          move one entry
  block                   register a blocker
  unblock [id]            remove a blocker (default: the newest)
  retry | cancel          answer the blocker that asked
  flush                   apply navigations left by a cancel
  loc                     print the current location
  entries                 print the stack
  href <path>             print the link form of path
  help | quit
`

func replCmd() *cobra.Command {
	var (
		entries []string
		index   int
		discard bool
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Drive an in-memory history from the terminal",
		Long: `Start an interactive in-memory history.

Navigations are queued and blockers can hold them back, exactly as in
a browser tab driven by the server.

Examples:
  navhist repl
  navhist repl --entries=/,/a,/b --index=1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := history.MemoryOptions{InitialEntries: entries, InitialIndex: &index}
			var hopts []history.Option
			if discard {
				hopts = append(hopts, history.WithDiscardOnCancel())
			}
			return runREPL(os.Stdin, cmd.OutOrStdout(), opts, hopts...)
		},
	}

	cmd.Flags().StringSliceVar(&entries, "entries", nil, "Initial entries (default /)")
	cmd.Flags().IntVar(&index, "index", -1, "Initial index (negative selects the last entry)")
	cmd.Flags().BoolVar(&discard, "discard-on-cancel", false, "Drop queued navigations when a blocker cancels")

	return cmd
}

type repl struct {
	h     *history.History
	stack *history.MemoryStack
	out   io.Writer

	unblocks    map[int]func()
	nextBlocker int
	retry       func()
	cancel      func()
}

func runREPL(in io.Reader, out io.Writer, opts history.MemoryOptions, hopts ...history.Option) error {
	stack := history.NewMemoryStack(opts)
	r := &repl{
		h:        history.New(stack.Adapter(), hopts...),
		stack:    stack,
		out:      out,
		unblocks: make(map[int]func()),
	}
	defer r.h.Listen(func() {
		fmt.Fprintf(r.out, "-> %s\n", r.h.Location().Href)
	})()

	fmt.Fprintf(out, "at %s (type help for commands)\n", r.h.Location().Href)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := r.exec(fields[0], fields[1:]); err != nil {
			fmt.Fprintf(out, "error: %s\n", errors.FromError(err, "E140").FormatCompact())
		}
	}
	return scanner.Err()
}

func (r *repl) exec(name string, args []string) error {
	switch name {
	case "push", "replace":
		if len(args) == 0 {
			return usageError(name + " <path> [value]")
		}
		var value any
		if len(args) > 1 {
			value = strings.Join(args[1:], " ")
		}
		if name == "push" {
			r.h.Push(args[0], value)
		} else {
			r.h.Replace(args[0], value)
		}

	case "go":
		if len(args) != 1 {
			return usageError("go <delta>")
		}
		delta, err := strconv.Atoi(args[0])
		if err != nil {
			return usageError("go <delta>")
		}
		r.h.Go(delta)

	case "back":
		r.h.Back()

	case "forward":
		r.h.Forward()

	case "block":
		r.block()

	case "unblock":
		return r.unblock(args)

	case "retry":
		if r.retry == nil {
			fmt.Fprintln(r.out, "nothing to retry")
			return nil
		}
		fn := r.retry
		r.retry, r.cancel = nil, nil
		fn()

	case "cancel":
		if r.cancel == nil {
			fmt.Fprintln(r.out, "nothing to cancel")
			return nil
		}
		fn := r.cancel
		r.retry, r.cancel = nil, nil
		r.unblocks = make(map[int]func())
		fn()
		if n := r.h.Pending(); n > 0 {
			fmt.Fprintf(r.out, "cancelled; %d navigation(s) still queued\n", n)
		}

	case "flush":
		r.h.Flush()

	case "loc":
		loc := r.h.Location()
		fmt.Fprintf(r.out, "pathname=%s search=%s hash=%s key=%s\n",
			loc.Pathname, loc.Search, loc.Hash, loc.State.Key)
		if loc.State.Value != nil {
			fmt.Fprintf(r.out, "state=%v\n", loc.State.Value)
		}

	case "entries":
		cur := r.stack.Index()
		for i, e := range r.stack.Entries() {
			marker := " "
			if i == cur {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %d %s\n", marker, i, e)
		}

	case "href":
		if len(args) != 1 {
			return usageError("href <path>")
		}
		fmt.Fprintln(r.out, r.h.CreateHref(args[0]))

	case "help":
		fmt.Fprint(r.out, replHelp)

	default:
		return errors.Newf(errors.CategoryCLI, "unknown command %q (type help)", name)
	}
	return nil
}

func (r *repl) block() {
	r.nextBlocker++
	id := r.nextBlocker
	r.unblocks[id] = r.h.Block(func(retry, cancel func()) {
		r.retry, r.cancel = retry, cancel
		fmt.Fprintf(r.out, "blocker %d holds %d navigation(s): retry or cancel\n", id, r.h.Pending())
	})
	fmt.Fprintf(r.out, "blocker %d registered\n", id)
}

func (r *repl) unblock(args []string) error {
	if len(r.unblocks) == 0 {
		fmt.Fprintln(r.out, "no blockers")
		return nil
	}

	id := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return usageError("unblock [id]")
		}
		id = n
	} else {
		ids := make([]int, 0, len(r.unblocks))
		for k := range r.unblocks {
			ids = append(ids, k)
		}
		sort.Ints(ids)
		id = ids[len(ids)-1]
	}

	fn, ok := r.unblocks[id]
	if !ok {
		return errors.Newf(errors.CategoryCLI, "no blocker %d", id)
	}
	delete(r.unblocks, id)
	fn()
	fmt.Fprintf(r.out, "blocker %d removed\n", id)
	return nil
}

func usageError(usage string) error {
	return errors.Newf(errors.CategoryCLI, "usage: %s", usage)
}
