package storage

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	key, err := DeriveKey("test passphrase")
	require.NoError(t, err)

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetUser(42)
	require.NoError(t, err)
	assert.Nil(t, got)

	user := material.User{ID: "u1", Name: "Acme Labs", Email: "ops@acme.test", Role: material.RoleIndustry}
	require.NoError(t, store.SaveUser(42, user))

	got, err = store.GetUser(42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.TelegramID)
	assert.Equal(t, user, got.User)
	assert.WithinDuration(t, time.Now(), got.LastUpdated, time.Minute)

	user.Name = "Acme Research"
	require.NoError(t, store.SaveUser(42, user))
	got, err = store.GetUser(42)
	require.NoError(t, err)
	assert.Equal(t, "Acme Research", got.User.Name)

	count, err := store.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.DeleteUser(42))
	got, err = store.GetUser(42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAPIKey_EncryptedRoundTrip(t *testing.T) {
	store := newTestStore(t)

	key, err := store.GetAPIKey()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, store.SetAPIKey("secret-key-1"))
	require.NoError(t, store.SetAPIKey("secret-key-2"))

	key, err = store.GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret-key-2", key)

	var raw string
	require.NoError(t, store.db.QueryRow("SELECT encrypted_value FROM credentials").Scan(&raw))
	assert.NotContains(t, raw, "secret-key-2")
}

func TestAPIKey_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	key1, err := DeriveKey("first")
	require.NoError(t, err)
	store, err := NewSQLiteStore(path, key1)
	require.NoError(t, err)
	require.NoError(t, store.SetAPIKey("secret"))
	require.NoError(t, store.Close())

	key2, err := DeriveKey("second")
	require.NoError(t, err)
	store, err = NewSQLiteStore(path, key2)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetAPIKey()
	assert.Error(t, err)
}

func TestKeySource(t *testing.T) {
	store := newTestStore(t)
	t.Setenv("TEST_GEMINI_KEY", "env-key")
	source := NewKeySource(store, "TEST_GEMINI_KEY")

	key, err := source.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)

	require.NoError(t, store.SetAPIKey("stored-key"))
	key, err = source.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored-key", key)
}

func TestKeySource_WithoutStore(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "env-key")

	key, err := NewKeySource(nil, "TEST_GEMINI_KEY").APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
}

func TestAnalysisCache(t *testing.T) {
	store := newTestStore(t)

	payload, err := store.GetAnalysisCache("classification/v1", "abc")
	require.NoError(t, err)
	assert.Nil(t, payload)

	require.NoError(t, store.SetAnalysisCache("classification/v1", "abc", []byte(`{"category":"Other"}`)))
	require.NoError(t, store.SetAnalysisCache("impact/v1", "abc", []byte(`{"co2Saved":1}`)))

	payload, err = store.GetAnalysisCache("classification/v1", "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"Other"}`, string(payload))

	pruned, err := store.PruneAnalysisCache(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, pruned)

	pruned, err = store.PruneAnalysisCache(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	payload, err = store.GetAnalysisCache("classification/v1", "abc")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("passphrase")
	require.NoError(t, err)
	b, err := DeriveKey("passphrase")
	require.NoError(t, err)
	c, err := DeriveKey("other")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = DeriveKey("")
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKey("passphrase")
	require.NoError(t, err)

	encoded, err := Encrypt([]byte("hello"), key)
	require.NoError(t, err)

	plain, err := Decrypt(encoded, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))

	_, err = Decrypt("bm90IGVub3VnaA==", key)
	assert.Error(t, err)
}

func TestEncrypt_FreshNonceEachTime(t *testing.T) {
	key, err := DeriveKey("passphrase")
	require.NoError(t, err)

	a, err := Encrypt([]byte("same"), key)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_Rejects(t *testing.T) {
	key, err := DeriveKey("passphrase")
	require.NoError(t, err)
	otherKey, err := DeriveKey("another passphrase")
	require.NoError(t, err)

	encoded, err := Encrypt([]byte("AIza-secret"), key)
	require.NoError(t, err)

	_, err = Decrypt(encoded, otherKey)
	assert.Error(t, err, "wrong key")

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	_, err = Decrypt(base64.StdEncoding.EncodeToString(raw), key)
	assert.Error(t, err, "tampered tag")

	_, err = Decrypt("c2hvcnQ=", key)
	assert.ErrorIs(t, err, errCiphertextTooShort)

	_, err = Decrypt("not base64!", key)
	assert.Error(t, err)
}
