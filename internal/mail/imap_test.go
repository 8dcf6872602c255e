package mail

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/Jackob-K/personal-ai-infra/internal/config"
)

type fakeSession struct {
	loginErr  error
	selectErr error
	searchErr error

	seqNums []uint32
	items   []fetched

	gotUser    string
	gotMailbox string
	gotUnseen  bool
	gotFetch   []uint32
	closed     bool
}

func (s *fakeSession) Login(username, password string) error {
	s.gotUser = username
	return s.loginErr
}

func (s *fakeSession) Select(mailbox string) error {
	s.gotMailbox = mailbox
	return s.selectErr
}

func (s *fakeSession) Search(unseenOnly bool) ([]uint32, error) {
	s.gotUnseen = unseenOnly
	return s.seqNums, s.searchErr
}

func (s *fakeSession) Fetch(seqNums []uint32) ([]fetched, error) {
	s.gotFetch = seqNums
	var out []fetched
	for _, item := range s.items {
		for _, n := range seqNums {
			if item.SeqNum == n {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func newTestFetcher(sessions map[string]*fakeSession, dialErr map[string]error) *Fetcher {
	return &Fetcher{dial: func(addr string) (session, error) {
		if err, ok := dialErr[addr]; ok {
			return nil, err
		}
		sess, ok := sessions[addr]
		if !ok {
			return nil, fmt.Errorf("unexpected dial %q", addr)
		}
		return sess, nil
	}}
}

func testAccount(name, host string) config.InboxAccount {
	return config.InboxAccount{
		Name:        name,
		Host:        host,
		Port:        993,
		Username:    "alice",
		PasswordEnv: "TEST_IMAP_PASSWORD",
		Folder:      "INBOX",
		UnseenOnly:  true,
	}
}

func envelope(id, subject, fromName, fromAddr string, date time.Time) *imap.Envelope {
	at := strings.SplitN(fromAddr, "@", 2)
	return &imap.Envelope{
		MessageID: id,
		Subject:   subject,
		From:      []imap.Address{{Name: fromName, Mailbox: at[0], Host: at[1]}},
		Date:      date,
	}
}

func TestFetchAll_MapsEnvelopeAndBody(t *testing.T) {
	t.Setenv("TEST_IMAP_PASSWORD", "secret")

	date := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	sess := &fakeSession{
		seqNums: []uint32{4},
		items: []fetched{{
			SeqNum:   4,
			Envelope: envelope("<msg-4@example.org>", "Thesis feedback", "Dr. Nguyen", "nguyen@uni.example", date),
			Body:     []byte("  Please send chapter 3 by Friday.\r\n"),
		}},
	}
	f := newTestFetcher(map[string]*fakeSession{"imap.example.org:993": sess}, nil)

	got := f.FetchAll([]config.InboxAccount{testAccount("personal", "imap.example.org")}, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}

	msg := got[0]
	if msg.AccountName != "personal" {
		t.Errorf("account name = %q", msg.AccountName)
	}
	if msg.MessageID != "<msg-4@example.org>" {
		t.Errorf("message id = %q", msg.MessageID)
	}
	if msg.Sender != "Dr. Nguyen <nguyen@uni.example>" {
		t.Errorf("sender = %q", msg.Sender)
	}
	if msg.Subject != "Thesis feedback" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Body != "Please send chapter 3 by Friday." {
		t.Errorf("body = %q", msg.Body)
	}
	if msg.ReceivedAt == nil || !msg.ReceivedAt.Equal(date) {
		t.Errorf("received at = %v", msg.ReceivedAt)
	}

	if !sess.gotUnseen {
		t.Error("unseen-only accounts must search unseen")
	}
	if sess.gotMailbox != "INBOX" {
		t.Errorf("selected mailbox %q", sess.gotMailbox)
	}
	if !sess.closed {
		t.Error("session must be closed")
	}
}

func TestFetchAll_MissingEnvelopeFallsBackToSeqNum(t *testing.T) {
	t.Setenv("TEST_IMAP_PASSWORD", "secret")

	sess := &fakeSession{
		seqNums: []uint32{7},
		items:   []fetched{{SeqNum: 7, Body: []byte("body")}},
	}
	f := newTestFetcher(map[string]*fakeSession{"imap.example.org:993": sess}, nil)

	got := f.FetchAll([]config.InboxAccount{testAccount("personal", "imap.example.org")}, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].MessageID != "seq-7" {
		t.Errorf("message id = %q, want seq-7", got[0].MessageID)
	}
	if got[0].ReceivedAt != nil {
		t.Errorf("received at should be nil without envelope date")
	}
}

func TestFetchAll_LimitsToNewestPerAccount(t *testing.T) {
	t.Setenv("TEST_IMAP_PASSWORD", "secret")

	sess := &fakeSession{seqNums: []uint32{1, 2, 3, 4, 5}}
	f := newTestFetcher(map[string]*fakeSession{"imap.example.org:993": sess}, nil)

	f.FetchAll([]config.InboxAccount{testAccount("personal", "imap.example.org")}, 2)

	if len(sess.gotFetch) != 2 || sess.gotFetch[0] != 4 || sess.gotFetch[1] != 5 {
		t.Errorf("expected newest two seq nums [4 5], got %v", sess.gotFetch)
	}
}

func TestFetchAll_BrokenAccountDoesNotBlockOthers(t *testing.T) {
	t.Setenv("TEST_IMAP_PASSWORD", "secret")

	good := &fakeSession{
		seqNums: []uint32{1},
		items:   []fetched{{SeqNum: 1, Envelope: envelope("<ok@example.org>", "Hi", "", "a@b.example", time.Time{})}},
	}
	f := newTestFetcher(
		map[string]*fakeSession{"good.example.org:993": good},
		map[string]error{"down.example.org:993": errors.New("connection refused")},
	)

	got := f.FetchAll([]config.InboxAccount{
		testAccount("down", "down.example.org"),
		testAccount("good", "good.example.org"),
	}, 10)

	if len(got) != 1 || got[0].AccountName != "good" {
		t.Fatalf("expected only the healthy account's message, got %+v", got)
	}
}

func TestFetchAll_SkipsAccountWithoutPassword(t *testing.T) {
	t.Setenv("TEST_IMAP_PASSWORD", "")

	f := newTestFetcher(nil, nil)
	account := testAccount("personal", "imap.example.org")
	account.PasswordEnv = "TEST_IMAP_PASSWORD"

	got := f.FetchAll([]config.InboxAccount{account}, 10)
	if len(got) != 0 {
		t.Errorf("expected no messages without credentials, got %d", len(got))
	}
}

func TestFetchAll_LoginFailureIsSkipped(t *testing.T) {
	t.Setenv("TEST_IMAP_PASSWORD", "secret")

	sess := &fakeSession{loginErr: errors.New("authentication failed")}
	f := newTestFetcher(map[string]*fakeSession{"imap.example.org:993": sess}, nil)

	got := f.FetchAll([]config.InboxAccount{testAccount("personal", "imap.example.org")}, 10)
	if len(got) != 0 {
		t.Errorf("expected no messages on login failure, got %d", len(got))
	}
	if !sess.closed {
		t.Error("session must be closed even after login failure")
	}
}

func TestFormatSender(t *testing.T) {
	if got := formatSender(nil); got != "" {
		t.Errorf("empty from list should format as empty, got %q", got)
	}
	bare := formatSender([]imap.Address{{Mailbox: "info", Host: "example.org"}})
	if bare != "info@example.org" {
		t.Errorf("bare address = %q", bare)
	}
}
