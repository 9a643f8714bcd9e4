package askpass

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hushkey/hushkey/internal/credstore"
	"github.com/hushkey/hushkey/internal/dialog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries map[string]string
	getErr  error
	setErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]string{}}
}

func (s *fakeStore) Get(name string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	secret, ok := s.entries[name]
	if !ok {
		return "", credstore.ErrNotFound
	}
	return secret, nil
}

func (s *fakeStore) Set(name, secret string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[name] = secret
	return nil
}

func (s *fakeStore) Delete(name string) error {
	if _, ok := s.entries[name]; !ok {
		return credstore.ErrNotFound
	}
	delete(s.entries, name)
	return nil
}

type fakePrompter struct {
	result      dialog.Result
	confirm     string
	err         error
	secretCalls int
	offeredSave bool
}

func (p *fakePrompter) Secret(prompt string, offerSave bool) (dialog.Result, error) {
	p.secretCalls++
	p.offeredSave = offerSave
	return p.result, p.err
}

func (p *fakePrompter) Confirm(prompt string) (string, error) {
	return p.confirm, p.err
}

type fakeRecorder struct {
	keys []string
}

func (r *fakeRecorder) Add(key string) error {
	r.keys = append(r.keys, key)
	return nil
}

const keyPrompt = "Enter passphrase for /home/u/.ssh/id_rsa: "

func TestFirstRunPromptsAndStores(t *testing.T) {
	store := newFakeStore()
	prompter := &fakePrompter{result: dialog.Result{Secret: "s3cr3t", Save: true}}
	recorder := &fakeRecorder{}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Index: recorder, Out: out}
	require.NoError(t, p.Run(keyPrompt))

	assert.Equal(t, "s3cr3t", out.String())
	assert.Equal(t, "s3cr3t", store.entries["ssh:/home/u/.ssh/id_rsa"])
	assert.Equal(t, []string{"/home/u/.ssh/id_rsa"}, recorder.keys)
	assert.Equal(t, 1, prompter.secretCalls)
	assert.True(t, prompter.offeredSave, "prompts naming a key file offer to save")
}

func TestNoSaveOfferWithoutIdentifier(t *testing.T) {
	store := newFakeStore()
	// Even a prompter claiming save was ticked must not cause a write when
	// saving was never offered.
	prompter := &fakePrompter{result: dialog.Result{Secret: "123456", Save: true}}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	require.NoError(t, p.Run("Verification code: "))

	assert.Equal(t, "123456", out.String())
	assert.False(t, prompter.offeredSave, "prompts without an identifier must not offer saving")
	assert.Empty(t, store.entries)
}

func TestSecondRunUsesStoredSecret(t *testing.T) {
	store := newFakeStore()
	store.entries["ssh:/home/u/.ssh/id_rsa"] = "s3cr3t"
	prompter := &fakePrompter{}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	require.NoError(t, p.Run(keyPrompt))

	assert.Equal(t, "s3cr3t", out.String())
	assert.Zero(t, prompter.secretCalls, "prompt facility must not be invoked on a hit")
}

func TestStoreUnavailableAbortsBeforePrompt(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("dbus: connection refused")
	prompter := &fakePrompter{}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	err := p.Run(keyPrompt)

	require.Error(t, err)
	assert.Empty(t, out.String(), "nothing may reach stdout on store failure")
	assert.Zero(t, prompter.secretCalls)
}

func TestUserCancelled(t *testing.T) {
	store := newFakeStore()
	prompter := &fakePrompter{err: dialog.ErrCancelled}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	err := p.Run(keyPrompt)

	assert.ErrorIs(t, err, dialog.ErrCancelled)
	assert.Empty(t, out.String())
}

func TestSaveDeclinedSkipsStore(t *testing.T) {
	store := newFakeStore()
	prompter := &fakePrompter{result: dialog.Result{Secret: "s3cr3t", Save: false}}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	require.NoError(t, p.Run(keyPrompt))

	assert.Equal(t, "s3cr3t", out.String())
	assert.Empty(t, store.entries)
}

func TestFailedSaveStillPrintsSecret(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("store locked")
	prompter := &fakePrompter{result: dialog.Result{Secret: "s3cr3t", Save: true}}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	require.NoError(t, p.Run(keyPrompt))
	assert.Equal(t, "s3cr3t", out.String())
}

func TestCheckRejectsBadPassphrase(t *testing.T) {
	store := newFakeStore()
	prompter := &fakePrompter{result: dialog.Result{Secret: "typo", Save: true}}
	out := &bytes.Buffer{}

	p := &Pipeline{
		Store:  store,
		Prompt: prompter,
		Check: func(path, secret string) error {
			return errors.New("decryption password incorrect")
		},
		Out: out,
	}
	require.NoError(t, p.Run(keyPrompt))

	assert.Equal(t, "typo", out.String(), "secret is still printed, ssh decides what to do")
	assert.Empty(t, store.entries, "unverified secret must not be cached")
}

func TestHostVerificationNeverTouchesStore(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("store must not be consulted")
	prompter := &fakePrompter{confirm: "yes"}
	out := &bytes.Buffer{}

	p := &Pipeline{Store: store, Prompt: prompter, Out: out}
	prompt := "The authenticity of host 'example.com (1.2.3.4)' can't be established.\n" +
		"Are you sure you want to continue connecting (yes/no/[fingerprint])?"
	require.NoError(t, p.Run(prompt))

	assert.Equal(t, "yes", out.String())
	assert.Zero(t, prompter.secretCalls)
	assert.Empty(t, store.entries)
}

func TestSameSecretForRephrasedPrompt(t *testing.T) {
	store := newFakeStore()
	prompter := &fakePrompter{result: dialog.Result{Secret: "s3cr3t", Save: true}}

	p := &Pipeline{Store: store, Prompt: prompter, Out: &bytes.Buffer{}}
	require.NoError(t, p.Run("Enter passphrase for /home/u/.ssh/id_rsa: "))

	// The retry wording keys on the same identifier.
	out := &bytes.Buffer{}
	p.Out = out
	require.NoError(t, p.Run("Enter passphrase for key '/home/u/.ssh/id_rsa': "))
	assert.Equal(t, "s3cr3t", out.String())
	assert.Equal(t, 1, prompter.secretCalls)
}
