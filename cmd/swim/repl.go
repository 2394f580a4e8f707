// ABOUTME: Line-oriented driver for a live session cursor.
// ABOUTME: Reads coach commands from a reader and reports step state and async saves.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/harperreed/swim/internal/session"
	"github.com/harperreed/swim/internal/workout"
)

const replHelp = `commands:
  l                      show the current step
  n / p                  next / previous step
  a <swimmer>...         toggle swimmers active
  t <swimmer> <rep> <digits>   type a time
  s <swimmer> [rep]      save a time (rep defaults to 1)
  q                      quit after pending saves finish`

// repl serializes output because save results arrive from background commits.
type repl struct {
	ctx context.Context
	cur *session.Cursor

	mu  sync.Mutex
	out io.Writer
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// runSession reads commands from in until q or EOF, then waits for
// in-flight saves and reports anything left unsaved.
func runSession(ctx context.Context, in io.Reader, out io.Writer, cur *session.Cursor) error {
	r := &repl{ctx: ctx, cur: cur, out: out}
	r.show()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == "q" {
			break
		}
		r.handle(fields)
	}

	cur.Wait()
	if pending := cur.Pending(); len(pending) > 0 {
		r.mu.Lock()
		warn.Fprintf(out, "⚠ %d unsaved time(s) discarded\n", len(pending))
		r.mu.Unlock()
	}
	return scanner.Err()
}

func (r *repl) handle(fields []string) {
	if len(fields) == 0 {
		return
	}
	args := fields[1:]

	switch fields[0] {
	case "l":
		r.show()
	case "n":
		if !r.cur.Next() {
			r.printf("Already at the last step.\n")
			return
		}
		r.show()
	case "p":
		if !r.cur.Previous() {
			r.printf("Already at the first step.\n")
			return
		}
		r.show()
	case "a":
		if len(args) == 0 {
			r.printf("usage: a <swimmer>...\n")
			return
		}
		for _, sw := range args {
			state := "inactive"
			if r.cur.ToggleSwimmer(sw) {
				state = "active"
			}
			r.printf("%s %s\n", sw, state)
		}
	case "t":
		if len(args) < 3 {
			r.printf("usage: t <swimmer> <rep> <digits>\n")
			return
		}
		rep, err := strconv.Atoi(args[1])
		if err != nil {
			r.printf("invalid repetition: %s\n", args[1])
			return
		}
		buf, err := r.cur.Input(args[0], rep, strings.Join(args[2:], ""))
		if err != nil {
			r.printf("✗ %v\n", err)
			return
		}
		r.printf("%s rep %d: %s\n", args[0], rep, buf)
	case "s":
		if len(args) < 1 {
			r.printf("usage: s <swimmer> [rep]\n")
			return
		}
		rep := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				r.printf("invalid repetition: %s\n", args[1])
				return
			}
			rep = n
		}
		r.save(args[0], rep)
	case "?", "h", "help":
		r.printf("%s\n", replHelp)
	default:
		r.printf("unknown command %q (? for help)\n", fields[0])
	}
}

func (r *repl) save(swimmer string, rep int) {
	err := r.cur.CommitAsync(r.ctx, swimmer, rep, func(res session.CommitResult) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if res.Err != nil {
			warn.Fprintf(r.out, "✗ %s rep %d not saved: %v\n", res.Key.SwimmerID, res.Key.Repetition, res.Err)
			return
		}
		success.Fprintf(r.out, "✓ %s rep %d %s saved\n", res.Key.SwimmerID, res.Key.Repetition, res.Record.TimeCode)
	})
	if err != nil {
		r.printf("✗ %v\n", err)
	}
}

func (r *repl) show() {
	entry, ok := r.cur.Current()
	if !ok {
		r.printf("Workout has no steps.\n")
		return
	}
	done, total := r.cur.Progress()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d/%d] %s\n", r.cur.Index()+1, r.cur.Len(), workout.StepLabel(entry.Step))
	if crumb := workout.Breadcrumb(entry.Path); crumb != "" {
		fmt.Fprintf(&sb, "  %s\n", faint.Sprint(crumb))
	}
	if entry.Step.Notes != "" {
		fmt.Fprintf(&sb, "  %s\n", entry.Step.Notes)
	}
	fmt.Fprintf(&sb, "  %dm of %dm done\n", done, total)

	active := r.cur.ActiveSwimmers()
	if len(active) == 0 {
		fmt.Fprintf(&sb, "  no active swimmers (a <swimmer>)\n")
	}
	reps := r.cur.Repetitions()
	for _, sw := range active {
		times := make([]string, 0, reps)
		for rep := 1; rep <= reps; rep++ {
			buf := r.cur.Buffer(sw, rep)
			if buf == "" {
				buf = "--:--:--"
			}
			times = append(times, buf)
		}
		fmt.Fprintf(&sb, "  %s  %s\n", padRight(sw, 6), strings.Join(times, "  "))
	}

	r.printf("%s", sb.String())
}
