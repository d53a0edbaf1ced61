// Command ticket-cli is a JSON-over-stdin/stdout scripting tool for a
// fixed demo ticket.Config: an open int64 "account_id" origin field, an
// open string "note" data field, and a secret int64 "amount_cents" data
// field under a minute-granularity, 32-bit-hash-tagged spec. It exists
// so issue/decode can be driven from shell scripts and other languages
// without writing Go.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ticketframe/ticket"
	"github.com/ticketframe/ticket/schema"
	"github.com/ticketframe/ticket/tkspec"
)

// Request is read once from stdin as a single JSON object.
type Request struct {
	Op string `json:"op"`

	// issue
	AccountID   int64  `json:"account_id,omitempty"`
	Note        string `json:"note,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`

	// decode
	Ticket string `json:"ticket,omitempty"`
}

// Response is written once to stdout as a single JSON object.
type Response struct {
	Ok  bool   `json:"ok"`
	Err string `json:"err,omitempty"`

	Ticket         string `json:"ticket,omitempty"`
	SpecIndex      int    `json:"spec_index,omitempty"`
	TimestampMs    int64  `json:"timestamp_ms,omitempty"`
	SequenceNumber int64  `json:"sequence_number,omitempty"`
	AccountID      int64  `json:"account_id,omitempty"`
	Note           string `json:"note,omitempty"`
	AmountCents    int64  `json:"amount_cents,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func demoFactory() (*ticket.Factory, error) {
	originSchema, err := schema.New([]schema.Field{
		{Index: 0, Kind: schema.I64},
	})
	if err != nil {
		return nil, err
	}
	dataSchema, err := schema.New([]schema.Field{
		{Index: 0, Kind: schema.String},
		{Index: 1, Kind: schema.I64, Secret: true},
	})
	if err != nil {
		return nil, err
	}
	spec, err := tkspec.New(time.UTC, tkspec.Minute, 2020, 32)
	if err != nil {
		return nil, err
	}
	cfg := &ticket.Config{
		OriginSchema: originSchema,
		DataSchema:   dataSchema,
		Specs:        []*tkspec.Spec{spec},
		CharLimit:    ticket.DefaultCharLimit,
	}
	return ticket.NewFactory(cfg, [][]byte{[]byte("ticket-cli-demo-key")})
}

func errResponse(err error) Response {
	if te, ok := err.(*ticket.Error); ok {
		return Response{Ok: false, Err: string(te.Code)}
	}
	return Response{Ok: false, Err: err.Error()}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}

	f, err := demoFactory()
	if err != nil {
		writeResp(os.Stdout, errResponse(err))
		return
	}

	switch req.Op {
	case "issue":
		m, err := f.MachineFor([]schema.Value{req.AccountID})
		if err != nil {
			writeResp(os.Stdout, errResponse(err))
			return
		}
		t, err := m.Issue([]schema.Value{req.Note, req.AmountCents})
		if err != nil {
			writeResp(os.Stdout, errResponse(err))
			return
		}
		writeResp(os.Stdout, Response{
			Ok:             true,
			Ticket:         t.String(),
			SpecIndex:      t.SpecIndex,
			TimestampMs:    t.TimestampMs,
			SequenceNumber: t.SequenceNumber,
		})
		return

	case "decode":
		if req.Ticket == "" {
			writeResp(os.Stdout, Response{Ok: false, Err: "ticket is required"})
			return
		}
		t, err := f.Decode(req.Ticket)
		if err != nil {
			writeResp(os.Stdout, errResponse(err))
			return
		}
		accountID, _ := t.Origin.Get(0).(int64)
		note, _ := t.Data.Get(0).(string)
		amountCents, _ := t.Data.Get(1).(int64)
		writeResp(os.Stdout, Response{
			Ok:             true,
			SpecIndex:      t.SpecIndex,
			TimestampMs:    t.TimestampMs,
			SequenceNumber: t.SequenceNumber,
			AccountID:      accountID,
			Note:           note,
			AmountCents:    amountCents,
		})
		return

	default:
		writeResp(os.Stdout, Response{Ok: false, Err: "unknown op"})
		return
	}
}
