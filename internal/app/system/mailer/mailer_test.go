package mailer

import (
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
}

func capture(m *Mailer) *captured {
	c := &captured{}
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.from, c.to, c.msg = addr, from, to, string(msg)
		return nil
	}
	return c
}

func TestSend_BuildsMultipartMessage(t *testing.T) {
	m := New(Config{Host: "smtp.local", Port: 2525, From: "noreply@villa.test", FromName: "Villa"}, zap.NewNop())
	c := capture(m)

	e := BuildMembershipRequestEmail(MembershipRequestData{
		SiteName:      "Villa",
		Coordinator:   "Sam",
		RequesterName: "Pat",
		GroupName:     "Landscaping Committee",
	})
	e.To = "sam@villa.test"

	if err := m.Send(e); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if c.addr != "smtp.local:2525" {
		t.Errorf("addr = %q", c.addr)
	}
	if len(c.to) != 1 || c.to[0] != "sam@villa.test" {
		t.Errorf("to = %v", c.to)
	}
	for _, want := range []string{
		"To: sam@villa.test",
		"multipart/alternative",
		"text/plain; charset=utf-8",
		"text/html; charset=utf-8",
		"Pat has asked to join Landscaping Committee",
	} {
		if !strings.Contains(c.msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSend_NoHostLogsOnly(t *testing.T) {
	m := New(Config{}, zap.NewNop())
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	if err := m.Send(Email{To: "a@b.test", Subject: "x", TextBody: "y"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if called {
		t.Error("no SMTP call expected without a host")
	}
}

func TestSend_RequiresRecipient(t *testing.T) {
	m := New(Config{Host: "smtp.local", Port: 25}, nil)
	capture(m)
	if err := m.Send(Email{Subject: "x"}); err != ErrNoRecipient {
		t.Errorf("err = %v, want ErrNoRecipient", err)
	}
}
