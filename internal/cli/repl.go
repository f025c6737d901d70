package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/loanbot/internal/chat"
)

// REPL commands.
const (
	cmdHelp    = "/help"
	cmdStatus  = "/status"
	cmdMetrics = "/metrics"
	cmdReset   = "/reset"
	cmdQuit    = "/quit"
)

const helpText = `Commands:
  /status   show the information collected so far
  /metrics  show conversation metrics
  /reset    start over with a new conversation
  /quit     end the conversation`

// REPL runs a line-based conversation in the terminal.
type REPL struct {
	bot        *chat.Bot
	reader     *LineReader
	writer     io.Writer
	interrupts *InterruptHandler
	symbol     string
}

// NewREPL creates a REPL reading applicant messages from reader.
func NewREPL(bot *chat.Bot, reader io.Reader, writer io.Writer) *REPL {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &REPL{
		bot:    bot,
		reader: NewLineReader(reader),
		writer: writer,
		symbol: bot.Engine().Policy().CurrencySymbol,
	}
}

// WithInterrupts reports the active session to h when the user interrupts.
func (r *REPL) WithInterrupts(h *InterruptHandler) *REPL {
	r.interrupts = h
	return r
}

// Run starts a conversation and processes lines until /quit, EOF or cancellation.
func (r *REPL) Run(ctx context.Context) error {
	c, err := r.bot.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}
	defer c.Close()
	r.trackSession(c)

	r.println(FormatTitle("Loan Eligibility Assistant"))
	r.println(SubtleStyle.Render("Type " + cmdHelp + " for commands. Sensitive details are masked before they leave this machine " + LockIcon))
	r.println("")
	r.assistant(c.Greeting())

	for {
		r.print(FormatPrompt("You"))
		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrReadCanceled) {
				r.println("")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case cmdQuit, "quit", "exit", "bye":
			r.println(FormatInfo("Goodbye! " + BankIcon))
			return nil
		case cmdHelp:
			r.println(helpText)
			continue
		case cmdStatus:
			r.println(RenderBox("Collected Information", RenderRecord(c.Record(), r.symbol)))
			continue
		case cmdMetrics:
			r.println(RenderBox(ChartIcon+" Conversation Metrics", RenderSnapshot(c.Snapshot())))
			continue
		case cmdReset:
			if err := c.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset conversation: %w", err)
			}
			r.trackSession(c)
			r.println(FormatSuccess("Started a new conversation."))
			r.assistant(c.Greeting())
			continue
		}

		if err := r.turn(ctx, c, line); err != nil {
			return err
		}
	}
}

func (r *REPL) turn(ctx context.Context, c *chat.Chat, line string) error {
	reply, err := c.Send(ctx, line)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to process message: %w", err)
	}

	if reply.Redacted.Detected() {
		r.println(SubtleStyle.Render(fmt.Sprintf("%s masked %d sensitive item(s): %s",
			LockIcon, reply.Redacted.MaskCount, strings.Join(reply.Redacted.CategoryNames(), ", "))))
	}
	if reply.Degraded {
		r.println(FormatWarning(reply.ModelText))
		r.println("")
	} else {
		r.assistant(reply.ModelText)
	}
	if reply.Decision != nil {
		r.println(RenderDecision(*reply.Decision))
	}
	return nil
}

func (r *REPL) trackSession(c *chat.Chat) {
	if r.interrupts != nil {
		r.interrupts.SetSession(c.ID())
	}
}

func (r *REPL) assistant(text string) {
	r.println(InfoStyle.Render(RobotIcon+" Assistant:") + " " + text)
	r.println("")
}

func (r *REPL) print(s string) {
	_, _ = fmt.Fprint(r.writer, s)
}

func (r *REPL) println(s string) {
	_, _ = fmt.Fprintln(r.writer, s)
}
