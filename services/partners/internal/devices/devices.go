// Package devices turns local hardware requests (receipt printer, label
// printer, cash drawer, desktop notifications) into jobs for the POS shell.
package devices

import (
	"context"
	"log/slog"
	"time"

	"github.com/Skotchmaster/partners_pos/pkg/events"
)

const (
	JobPrintReceipt      = "print_receipt"
	JobPrintBarcode      = "print_barcode"
	JobPrintShiftSummary = "print_shift_summary"
	JobOpenCashDrawer    = "open_cash_drawer"
	JobShowNotification  = "show_notification"
)

type Dispatcher interface {
	PrintReceipt(ctx context.Context, r Receipt) error
	PrintBarcode(ctx context.Context, l BarcodeLabel) error
	PrintShiftSummary(ctx context.Context, s ShiftSummary) error
	OpenCashDrawer(ctx context.Context) error
	ShowNotification(ctx context.Context, n Notification) error
}

type BarcodeLabel struct {
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Copies  int    `json:"copies"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Level string `json:"level"`
}

type Job struct {
	Type       string    `json:"type"`
	TerminalID string    `json:"terminal_id"`
	CreatedAt  time.Time `json:"created_at"`
	Text       string    `json:"text,omitempty"`
	Payload    any       `json:"payload,omitempty"`
}

// KafkaDispatcher publishes device jobs keyed by terminal so each terminal
// consumes its own jobs in order.
type KafkaDispatcher struct {
	Publisher  events.Publisher
	TerminalID string
}

func (d *KafkaDispatcher) send(ctx context.Context, typ, text string, payload any) error {
	return d.Publisher.PublishEvent(ctx, events.TopicDevices, d.TerminalID, Job{
		Type:       typ,
		TerminalID: d.TerminalID,
		CreatedAt:  time.Now().UTC(),
		Text:       text,
		Payload:    payload,
	})
}

func (d *KafkaDispatcher) PrintReceipt(ctx context.Context, r Receipt) error {
	return d.send(ctx, JobPrintReceipt, r.Render(), r)
}

func (d *KafkaDispatcher) PrintBarcode(ctx context.Context, l BarcodeLabel) error {
	if l.Copies < 1 {
		l.Copies = 1
	}
	return d.send(ctx, JobPrintBarcode, "", l)
}

func (d *KafkaDispatcher) PrintShiftSummary(ctx context.Context, s ShiftSummary) error {
	return d.send(ctx, JobPrintShiftSummary, s.Render(), s)
}

func (d *KafkaDispatcher) OpenCashDrawer(ctx context.Context) error {
	return d.send(ctx, JobOpenCashDrawer, "", nil)
}

func (d *KafkaDispatcher) ShowNotification(ctx context.Context, n Notification) error {
	if n.Level == "" {
		n.Level = "info"
	}
	return d.send(ctx, JobShowNotification, "", n)
}

// LogDispatcher only logs jobs; used when no terminal bridge is configured.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d *LogDispatcher) log(ctx context.Context, typ string, args ...any) error {
	l := d.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "device_job", append([]any{"type", typ}, args...)...)
	return nil
}

func (d *LogDispatcher) PrintReceipt(ctx context.Context, r Receipt) error {
	return d.log(ctx, JobPrintReceipt, "number", r.Number, "total", r.Total)
}

func (d *LogDispatcher) PrintBarcode(ctx context.Context, l BarcodeLabel) error {
	return d.log(ctx, JobPrintBarcode, "sku", l.SKU, "copies", l.Copies)
}

func (d *LogDispatcher) PrintShiftSummary(ctx context.Context, s ShiftSummary) error {
	return d.log(ctx, JobPrintShiftSummary, "shift_id", s.ShiftID)
}

func (d *LogDispatcher) OpenCashDrawer(ctx context.Context) error {
	return d.log(ctx, JobOpenCashDrawer)
}

func (d *LogDispatcher) ShowNotification(ctx context.Context, n Notification) error {
	return d.log(ctx, JobShowNotification, "title", n.Title, "level", n.Level)
}
