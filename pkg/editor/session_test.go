package editor_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-invoiceform/pkg/autosave"
	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/editor"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/sheet/socialcalc"
	"github.com/goliatone/go-invoiceform/pkg/storage"
	"github.com/goliatone/go-invoiceform/pkg/testsupport"
)

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) schedule(_ time.Duration, fn func()) autosave.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &manualTimer{fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *manualClock) fireLast() {
	c.mu.Lock()
	timer := c.timers[len(c.timers)-1]
	c.mu.Unlock()
	timer.fn()
}

func newStore() *storage.Local {
	cipher := storage.NewCipher(storage.WithKDFParams(storage.KDFParams{Time: 1, Memory: 64, Threads: 1}))
	return storage.NewLocal(storage.NewMemoryKV(0), storage.WithCipher(cipher))
}

func newRegistry(t *testing.T) *cellmap.Registry {
	t.Helper()
	registry := cellmap.NewRegistry()
	require.NoError(t, registry.Register(testsupport.InvoiceTemplate(t)))
	return registry
}

func newSession(t *testing.T, options ...editor.Option) (*editor.Session, *socialcalc.Sheet) {
	t.Helper()
	wb := socialcalc.New(socialcalc.NewMemoryEngine())
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	options = append([]editor.Option{editor.WithLogger(quiet)}, options...)
	session, err := editor.New(newRegistry(t), wb, options...)
	require.NoError(t, err)
	return session, wb
}

func TestSession_RequiresTemplate(t *testing.T) {
	session, _ := newSession(t)

	require.ErrorIs(t, session.SetField("Bill To", "Name", "Jane"), editor.ErrNoTemplate)
	_, err := session.Submit(context.Background())
	require.ErrorIs(t, err, editor.ErrNoTemplate)
	require.ErrorIs(t, session.SelectTemplate(99), editor.ErrUnknownTemplate)

	require.NoError(t, session.SelectTemplate(7))
	require.ErrorIs(t, session.SelectFooter(5), editor.ErrUnknownFooter)

	tpl, ok := session.Template()
	require.True(t, ok)
	require.Equal(t, "Service Invoice", tpl.Name)
	require.Equal(t, 2, session.Footer().Index, "active footer is selected")
	require.NotEmpty(t, session.Sections())
}

func TestSession_SetFieldSanitizes(t *testing.T) {
	session, _ := newSession(t)
	require.NoError(t, session.SelectTemplate(7))

	require.NoError(t, session.SetField("Bill To", "Name", "<b>Jane</b> &amp; Co"))
	require.NoError(t, session.SetItem("Line Items", 0, "Description", "<script>x</script>Consulting"))

	data := session.Data()
	name, _ := data.Get("Bill To", "Name")
	require.Equal(t, "Jane &amp; Co", name)
	desc, _ := data.Item("Line Items", 0, "Description")
	require.Equal(t, "Consulting", desc)

	require.ErrorIs(t, session.SetField("Nope", "Name", "x"), form.ErrUnknownSection)
}

func TestSession_SubmitWritesValidData(t *testing.T) {
	ctx := context.Background()
	session, wb := newSession(t)
	require.NoError(t, session.SelectTemplate(7))

	require.NoError(t, session.SetField("Bill To", "Email", "not-an-email"))
	result, err := session.Submit(ctx)
	require.NoError(t, err)
	require.False(t, result.Validation.Valid)
	require.Nil(t, result.Cells)

	values, err := wb.CellValues(ctx, cellmap.DefaultSheetID, []string{"C6"})
	require.NoError(t, err)
	require.Empty(t, values["C6"], "invalid submit must not touch the workbook")

	require.NoError(t, session.SetField("Bill To", "Name", "Jane"))
	require.NoError(t, session.SetField("Bill To", "Email", "jane@example.com"))
	require.NoError(t, session.SetItem("Line Items", 0, "Amount", "150"))
	result, err = session.Submit(ctx)
	require.NoError(t, err)
	require.True(t, result.Validation.Valid)
	require.Equal(t, "Jane", result.Cells["C5"])
	require.Equal(t, "150", result.Cells["F23"])

	values, err = wb.CellValues(ctx, cellmap.DefaultSheetID, []string{"C5", "C6", "F23"})
	require.NoError(t, err)
	require.Equal(t, "Jane", values["C5"])
	require.Equal(t, "jane@example.com", values["C6"])
	require.Equal(t, "150", values["F23"])

	require.NoError(t, session.Clear(ctx))
	values, err = wb.CellValues(ctx, cellmap.DefaultSheetID, []string{"C5"})
	require.NoError(t, err)
	require.Empty(t, values["C5"])
	name, _ := session.Data().Get("Bill To", "Name")
	require.Empty(t, name)
}

func TestSession_SaveAndLoadEncrypted(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	writer, _ := newSession(t, editor.WithStore(store), editor.WithoutAutosave())
	require.ErrorIs(t, writer.Save(ctx), editor.ErrNoDocument)

	require.NoError(t, writer.SelectTemplate(7))
	require.NoError(t, writer.SelectFooter(1))
	require.NoError(t, writer.SetField("Bill To", "Name", "Jane"))
	_, err := writer.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, writer.SaveAs(ctx, "inv-1", "secret"))

	err = writer.SaveAs(ctx, "inv-1", "")
	require.ErrorIs(t, err, storage.ErrExists)
	require.Equal(t, storage.CategoryExists, storage.CategoryOf(err))

	encrypted, err := store.IsEncrypted(ctx, "inv-1")
	require.NoError(t, err)
	require.True(t, encrypted)

	reader, _ := newSession(t, editor.WithStore(store), editor.WithoutAutosave())
	require.ErrorIs(t, reader.Load(ctx, "inv-1", ""), storage.ErrPasswordRequired)
	require.ErrorIs(t, reader.Load(ctx, "inv-1", "wrong"), storage.ErrWrongPassword)
	require.ErrorIs(t, reader.Load(ctx, "missing", ""), storage.ErrNotFound)

	require.NoError(t, reader.Load(ctx, "inv-1", "secret"))
	name, _ := reader.Data().Get("Bill To", "Name")
	require.Equal(t, "Jane", name)
	require.Equal(t, 1, reader.Footer().Index)
	doc, ok := reader.Document()
	require.True(t, ok)
	require.Equal(t, "inv-1", doc)
}

func TestSession_SaveKeepsCreated(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	now := created
	session, _ := newSession(t,
		editor.WithStore(store),
		editor.WithoutAutosave(),
		editor.WithClock(func() time.Time { return now }),
	)

	require.NoError(t, session.SelectTemplate(7))
	require.NoError(t, session.SaveAs(ctx, "inv-2", ""))
	now = created.Add(time.Hour)
	require.NoError(t, session.Save(ctx))

	doc, err := store.Get(ctx, "inv-2")
	require.NoError(t, err)
	require.True(t, doc.Created.Equal(created))
	require.False(t, doc.Encrypted)
}

func TestSession_Autosave(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	clock := &manualClock{}
	session, _ := newSession(t, editor.WithStore(store), editor.WithAutosaveScheduler(clock.schedule))

	require.NoError(t, session.SelectTemplate(7))
	require.NoError(t, session.SetField("Bill To", "Name", "Jane"))
	_, err := session.Submit(ctx)
	require.NoError(t, err)
	require.False(t, session.PendingSave(), "nothing to autosave before a document is bound")

	require.NoError(t, session.SaveAs(ctx, "inv-3", ""))
	require.NoError(t, session.SetField("Bill To", "Name", "Janet"))
	_, err = session.Submit(ctx)
	require.NoError(t, err)
	require.True(t, session.PendingSave())

	clock.fireLast()
	require.False(t, session.PendingSave())

	reader, _ := newSession(t, editor.WithStore(store), editor.WithoutAutosave())
	require.NoError(t, reader.Load(ctx, "inv-3", ""))
	name, _ := reader.Data().Get("Bill To", "Name")
	require.Equal(t, "Janet", name)

	require.NoError(t, session.SetField("Bill To", "Name", "Joan"))
	_, err = session.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, session.Close(ctx))

	require.NoError(t, reader.Load(ctx, "inv-3", ""))
	name, _ = reader.Data().Get("Bill To", "Name")
	require.Equal(t, "Joan", name, "close flushes the pending save")
}

func TestSession_StoreRequired(t *testing.T) {
	ctx := context.Background()
	session, _ := newSession(t)
	require.NoError(t, session.SelectTemplate(7))
	require.ErrorIs(t, session.SaveAs(ctx, "x", ""), editor.ErrNoStore)
	require.ErrorIs(t, session.Load(ctx, "x", ""), editor.ErrNoStore)
	require.NoError(t, session.Close(ctx))
}

func TestSession_StoresURIEncodedContent(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	session, wb := newSession(t, editor.WithStore(store), editor.WithoutAutosave())

	require.NoError(t, session.SelectTemplate(7))
	require.NoError(t, session.SetField("Bill To", "Name", "Jane & Co"))
	_, err := session.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, session.SaveAs(ctx, "inv-4", ""))

	snapshot, err := wb.Snapshot(ctx)
	require.NoError(t, err)
	doc, err := store.Get(ctx, "inv-4")
	require.NoError(t, err)
	require.Equal(t, storage.EncodeContent(snapshot), doc.Content)
	require.NotContains(t, doc.Content, "{")

	// a document written by another client in the same format
	other := storage.NewDocument("inv-5", storage.EncodeContent(snapshot), 7, 2, time.Now())
	require.NoError(t, store.Create(ctx, other))

	reader, _ := newSession(t, editor.WithStore(store), editor.WithoutAutosave())
	require.NoError(t, reader.Load(ctx, "inv-5", ""))
	name, _ := reader.Data().Get("Bill To", "Name")
	require.Equal(t, "Jane & Co", name)
}

func TestSession_FailedLoadKeepsState(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	session, wb := newSession(t, editor.WithStore(store), editor.WithoutAutosave())

	require.NoError(t, session.SelectTemplate(7))
	require.NoError(t, session.SetField("Bill To", "Name", "Jane"))
	_, err := session.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, session.SaveAs(ctx, "a", ""))
	require.NoError(t, session.SetField("Bill To", "Name", "Unsaved Edit"))

	bad := storage.NewDocument("bad", storage.EncodeContent("not json"), 7, 1, time.Now())
	require.NoError(t, store.Create(ctx, bad))

	require.Error(t, session.Load(ctx, "bad", ""))

	doc, ok := session.Document()
	require.True(t, ok)
	require.Equal(t, "a", doc)
	require.Equal(t, 2, session.Footer().Index)
	name, _ := session.Data().Get("Bill To", "Name")
	require.Equal(t, "Unsaved Edit", name)

	values, err := wb.CellValues(ctx, cellmap.DefaultSheetID, []string{"C5"})
	require.NoError(t, err)
	require.Equal(t, "Jane", values["C5"], "workbook is left as it was")
}
