package mail

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/Jackob-K/personal-ai-infra/internal/config"
	"github.com/Jackob-K/personal-ai-infra/internal/keyring"
	"github.com/Jackob-K/personal-ai-infra/internal/logger"
)

const maxBodyBytes = 5000

// Message is a fetched email reduced to the fields the ingestion flow needs.
type Message struct {
	AccountName string
	MessageID   string
	Sender      string
	Subject     string
	Body        string
	ReceivedAt  *time.Time
}

// fetched is one message as it comes back from a session.
type fetched struct {
	SeqNum   uint32
	Envelope *imap.Envelope
	Body     []byte
}

// session is the slice of the IMAP client the fetcher uses, split out so
// tests can run without a live server.
type session interface {
	Login(username, password string) error
	Select(mailbox string) error
	Search(unseenOnly bool) ([]uint32, error)
	Fetch(seqNums []uint32) ([]fetched, error)
	Close() error
}

// Fetcher pulls recent messages from the configured inbox accounts.
type Fetcher struct {
	dial func(addr string) (session, error)
}

func New() *Fetcher {
	return &Fetcher{dial: dialTLS}
}

// FetchAll retrieves up to maxPerAccount of the newest matching messages
// from every account. A failing account is logged and skipped; one broken
// inbox must not block the rest.
func (f *Fetcher) FetchAll(accounts []config.InboxAccount, maxPerAccount int) []Message {
	if maxPerAccount <= 0 {
		maxPerAccount = 10
	}

	var results []Message
	for _, account := range accounts {
		messages, err := f.fetchAccount(account, maxPerAccount)
		if err != nil {
			logger.Warn("inbox fetch failed", "account", account.Name, "error", err)
			continue
		}
		results = append(results, messages...)
	}
	return results
}

func (f *Fetcher) fetchAccount(account config.InboxAccount, maxPerAccount int) ([]Message, error) {
	password := resolvePassword(account)
	if password == "" {
		return nil, fmt.Errorf("no password configured for account %q", account.Name)
	}

	sess, err := f.dial(fmt.Sprintf("%s:%d", account.Host, account.Port))
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	defer sess.Close()

	if err := sess.Login(account.Username, password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := sess.Select(account.Folder); err != nil {
		return nil, fmt.Errorf("select %q failed: %w", account.Folder, err)
	}

	seqNums, err := sess.Search(account.UnseenOnly)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(seqNums) > maxPerAccount {
		seqNums = seqNums[len(seqNums)-maxPerAccount:]
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	items, err := sess.Fetch(seqNums)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	messages := make([]Message, 0, len(items))
	for _, item := range items {
		messages = append(messages, toMessage(account.Name, item))
	}
	return messages, nil
}

// resolvePassword checks the account's environment variable first, then the
// OS keyring.
func resolvePassword(account config.InboxAccount) string {
	if account.PasswordEnv != "" {
		if value := os.Getenv(account.PasswordEnv); value != "" {
			return value
		}
	}
	if value, err := keyring.GetSecret(keyring.IMAPPassword(account.Name)); err == nil {
		return value
	}
	return ""
}

func toMessage(accountName string, item fetched) Message {
	msg := Message{
		AccountName: accountName,
		MessageID:   fmt.Sprintf("seq-%d", item.SeqNum),
	}

	if env := item.Envelope; env != nil {
		if env.MessageID != "" {
			msg.MessageID = env.MessageID
		}
		msg.Subject = env.Subject
		msg.Sender = formatSender(env.From)
		if !env.Date.IsZero() {
			received := env.Date
			msg.ReceivedAt = &received
		}
	}

	body := item.Body
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	msg.Body = strings.TrimSpace(string(body))

	return msg
}

func formatSender(addrs []imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	addr := addrs[0]
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Addr())
	}
	return addr.Addr()
}

var textSection = &imap.FetchItemBodySection{Specifier: imap.PartSpecifierText}

// imapSession adapts the go-imap client to the session interface.
type imapSession struct {
	client *imapclient.Client
}

func dialTLS(addr string) (session, error) {
	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, err
	}
	return &imapSession{client: client}, nil
}

func (s *imapSession) Login(username, password string) error {
	return s.client.Login(username, password).Wait()
}

// Select opens the mailbox read-only so fetching never flips message flags.
func (s *imapSession) Select(mailbox string) error {
	_, err := s.client.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	return err
}

func (s *imapSession) Search(unseenOnly bool) ([]uint32, error) {
	criteria := &imap.SearchCriteria{}
	if unseenOnly {
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	}
	data, err := s.client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllSeqNums(), nil
}

func (s *imapSession) Fetch(seqNums []uint32) ([]fetched, error) {
	options := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{textSection},
	}
	buffers, err := s.client.Fetch(imap.SeqSetNum(seqNums...), options).Collect()
	if err != nil {
		return nil, err
	}

	items := make([]fetched, 0, len(buffers))
	for _, buf := range buffers {
		items = append(items, fetched{
			SeqNum:   buf.SeqNum,
			Envelope: buf.Envelope,
			Body:     buf.FindBodySection(textSection),
		})
	}
	return items, nil
}

func (s *imapSession) Close() error {
	if err := s.client.Logout().Wait(); err != nil {
		return s.client.Close()
	}
	return nil
}
