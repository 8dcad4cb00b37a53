package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-invoiceform/pkg/storage"
)

// fastCipher keeps argon2 cheap in tests.
func fastCipher() *storage.Cipher {
	return storage.NewCipher(storage.WithKDFParams(storage.KDFParams{Time: 1, Memory: 64, Threads: 1}))
}

func newLocal(kv storage.KV, now time.Time) *storage.Local {
	return storage.NewLocal(kv,
		storage.WithCipher(fastCipher()),
		storage.WithClock(func() time.Time { return now }),
	)
}

func TestLocal_SaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	local := newLocal(storage.NewMemoryKV(0), now)

	doc := storage.NewDocument("invoice-1", "workbook", 2, 1, created)
	require.NoError(t, local.Save(ctx, doc))

	got, err := local.Get(ctx, "invoice-1")
	require.NoError(t, err)
	require.Equal(t, "workbook", got.Content)
	require.Equal(t, 2, got.TemplateID)
	require.Equal(t, 1, got.Footer)
	require.False(t, got.Encrypted)
	require.True(t, got.Created.Equal(created))
	require.True(t, got.Modified.Equal(now))

	exists, err := local.Exists(ctx, "invoice-1")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestLocal_EncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	local := newLocal(storage.NewMemoryKV(0), time.Now())

	doc := storage.NewEncryptedDocument("secret", "workbook content", 1, 1, time.Now())
	require.NoError(t, local.Save(ctx, doc, storage.WithPassword("hunter2")))

	sealed, err := local.Get(ctx, "secret")
	require.NoError(t, err)
	require.True(t, sealed.Encrypted)
	require.NotEqual(t, "workbook content", sealed.Content)

	encrypted, err := local.IsEncrypted(ctx, "secret")
	require.NoError(t, err)
	require.True(t, encrypted)

	opened, err := local.GetWithPassword(ctx, "secret", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "workbook content", opened.Content)

	_, err = local.GetWithPassword(ctx, "secret", "wrong")
	require.ErrorIs(t, err, storage.ErrWrongPassword)
	require.Equal(t, storage.CategoryWrongPassword, storage.CategoryOf(err))

	_, err = local.GetWithPassword(ctx, "secret", "")
	require.ErrorIs(t, err, storage.ErrPasswordRequired)
}

func TestLocal_EncryptedWithoutPasswordIsRejected(t *testing.T) {
	local := newLocal(storage.NewMemoryKV(0), time.Now())
	doc := storage.NewEncryptedDocument("secret", "x", 1, 1, time.Now())
	err := local.Save(context.Background(), doc)
	require.ErrorIs(t, err, storage.ErrPasswordRequired)
}

func TestLocal_PlainDocumentIgnoresPassword(t *testing.T) {
	ctx := context.Background()
	local := newLocal(storage.NewMemoryKV(0), time.Now())
	require.NoError(t, local.Save(ctx, storage.NewDocument("plain", "x", 1, 1, time.Now())))

	doc, err := local.GetWithPassword(ctx, "plain", "anything")
	require.NoError(t, err)
	require.Equal(t, "x", doc.Content)
}

func TestLocal_CreateRefusesCollision(t *testing.T) {
	ctx := context.Background()
	local := newLocal(storage.NewMemoryKV(0), time.Now())

	require.NoError(t, local.Create(ctx, storage.NewDocument("a", "1", 1, 1, time.Now())))
	err := local.Create(ctx, storage.NewDocument("a", "2", 1, 1, time.Now()))
	require.ErrorIs(t, err, storage.ErrExists)

	doc, err := local.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "1", doc.Content)
}

func TestLocal_MissingAndInvalidNames(t *testing.T) {
	ctx := context.Background()
	local := newLocal(storage.NewMemoryKV(0), time.Now())

	_, err := local.Get(ctx, "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, local.Delete(ctx, "nope"), storage.ErrNotFound)
	require.ErrorIs(t, local.Save(ctx, storage.Document{Name: "  "}), storage.ErrInvalidName)
}

func TestLocal_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	local := newLocal(storage.NewMemoryKV(64), time.Now())

	err := local.Save(ctx, storage.NewDocument("big", string(make([]byte, 128)), 1, 1, time.Now()))
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)
	require.Equal(t, storage.CategoryQuota, storage.CategoryOf(err))
	require.Contains(t, storage.UserMessage(err, "auto-saving"), "auto-saving")
}

func TestLocal_ListingByTemplate(t *testing.T) {
	ctx := context.Background()
	local := newLocal(storage.NewMemoryKV(0), time.Now())

	for _, doc := range []storage.Document{
		storage.NewDocument("c", "", 2, 1, time.Now()),
		storage.NewDocument("a", "", 1, 1, time.Now()),
		storage.NewDocument("b", "", 2, 2, time.Now()),
	} {
		require.NoError(t, local.Save(ctx, doc))
	}

	all, err := local.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{all[0].Name, all[1].Name, all[2].Name})

	byTemplate, err := local.ListByTemplate(ctx, 2)
	require.NoError(t, err)
	require.Len(t, byTemplate, 2)
	require.Equal(t, "b", byTemplate[0].Name)

	ids, err := local.TemplateIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, ids)

	require.NoError(t, local.Delete(ctx, "a"))
	ids, err = local.TemplateIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{2}, ids)
}

func TestLocal_MigratesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV(0)
	require.NoError(t, kv.Set(ctx, "old", []byte(`{
		"created": "2023-05-01T08:00:00.000Z",
		"modified": "not a date",
		"content": "abc",
		"name": "old",
		"billType": 3,
		"isEncrypted": false,
		"templateMetadata": {"template": "Template 7", "templateId": 7, "footers": [], "cellMappings": {}}
	}`)))
	require.NoError(t, kv.Set(ctx, "older", []byte(`{"name": "older", "content": "", "billType": 2}`)))

	local := newLocal(kv, time.Now())

	doc, err := local.Get(ctx, "old")
	require.NoError(t, err)
	require.Equal(t, 7, doc.TemplateID)
	require.Equal(t, 3, doc.Footer)
	require.Equal(t, 2023, doc.Created.Year())
	require.True(t, doc.Modified.IsZero())

	doc, err = local.Get(ctx, "older")
	require.NoError(t, err)
	require.Equal(t, 2, doc.TemplateID)
}
