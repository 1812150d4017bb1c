package store_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"blitztest/internal/importer"
	"blitztest/internal/model"
	"blitztest/internal/store"
	"go.followtheprocess.codes/test"
)

// newStore returns a store with a frozen clock and sequential ids.
func newStore(t *testing.T) *store.Store {
	t.Helper()
	n := 0
	return store.New(
		store.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		store.WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func TestNewSeedsOneActiveRequest(t *testing.T) {
	s := newStore(t)

	requests := s.Requests()
	test.Equal(t, len(requests), 1)
	test.Equal(t, requests[0].Name, model.DefaultRequestName)
	test.Equal(t, requests[0].Method, "GET")
	test.Equal(t, s.ActiveRequest().ID, requests[0].ID)

	_, ok := s.ActiveCollection()
	test.True(t, !ok)
}

func TestNewRequestBecomesActive(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()

	test.Equal(t, len(s.Requests()), 2)
	test.Equal(t, s.ActiveRequest().ID, req.ID)
	test.Equal(t, req.Headers[0], model.PlaceholderHeader())
	test.Equal(t, req.Params[0], model.PlaceholderParam())
	test.Equal(t, req.BodyType, model.BodyNone)
	test.Equal(t, req.AuthType, model.AuthNone)
}

func TestRemoveLastRequestRefused(t *testing.T) {
	s := newStore(t)
	only := s.ActiveRequest()

	err := s.RemoveRequest(only.ID)
	test.True(t, errors.Is(err, store.ErrLastRequest))
	test.Equal(t, len(s.Requests()), 1)
	test.Equal(t, s.ActiveRequest().ID, only.ID)
}

func TestRemoveActiveRequestReassigns(t *testing.T) {
	s := newStore(t)
	first := s.ActiveRequest()
	second := s.NewRequest()
	col := s.CreateCollection("Col", "")
	test.Ok(t, s.AddRequestToCollection(second.ID, col.ID))

	test.Ok(t, s.RemoveRequest(second.ID))

	test.Equal(t, len(s.Requests()), 1)
	test.Equal(t, s.ActiveRequest().ID, first.ID)

	got, err := s.Collection(col.ID)
	test.Ok(t, err)
	test.Equal(t, len(got.Requests), 0)
}

func TestRemoveMissingRequest(t *testing.T) {
	s := newStore(t)
	err := s.RemoveRequest("nope")
	test.True(t, errors.Is(err, store.ErrRequestNotFound))
}

func TestUpdateRequestKeepsIdentity(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()
	col := s.CreateCollection("Col", "")
	test.Ok(t, s.AddRequestToCollection(req.ID, col.ID))

	err := s.UpdateRequest(req.ID, func(r *model.Request) {
		r.ID = "hijack"
		r.CollectionID = ""
		r.Name = "Renamed"
		r.URL = "https://a.b"
	})
	test.Ok(t, err)

	got, err := s.Request(req.ID)
	test.Ok(t, err)
	test.Equal(t, got.Name, "Renamed")
	test.Equal(t, got.URL, "https://a.b")
	test.Equal(t, got.CollectionID, col.ID)

	test.True(t, errors.Is(s.UpdateRequest("nope", func(*model.Request) {}), store.ErrRequestNotFound))
}

func TestSetActiveRequest(t *testing.T) {
	s := newStore(t)
	first := s.ActiveRequest()
	s.NewRequest()

	test.Ok(t, s.SetActiveRequest(first.ID))
	test.Equal(t, s.ActiveRequest().ID, first.ID)
	test.True(t, errors.Is(s.SetActiveRequest("nope"), store.ErrRequestNotFound))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := newStore(t)
	req := s.ActiveRequest()
	req.Headers[0].Key = "mutated"

	test.Equal(t, s.ActiveRequest().Headers[0].Key, "")
}

func TestAddRequestToCollectionMoves(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()
	a := s.CreateCollection("A", "")
	b := s.CreateCollection("B", "first")

	test.Ok(t, s.AddRequestToCollection(req.ID, a.ID))
	test.Ok(t, s.AddRequestToCollection(req.ID, a.ID))

	gotA, _ := s.Collection(a.ID)
	test.Equal(t, len(gotA.Requests), 1)

	test.Ok(t, s.AddRequestToCollection(req.ID, b.ID))

	gotA, _ = s.Collection(a.ID)
	gotB, _ := s.Collection(b.ID)
	test.Equal(t, len(gotA.Requests), 0)
	test.Equal(t, len(gotB.Requests), 1)
	test.Equal(t, gotB.Description, "first")

	moved, _ := s.Request(req.ID)
	test.Equal(t, moved.CollectionID, b.ID)

	test.True(t, errors.Is(s.AddRequestToCollection(req.ID, "nope"), store.ErrCollectionNotFound))
	test.True(t, errors.Is(s.AddRequestToCollection("nope", b.ID), store.ErrRequestNotFound))
}

func TestRemoveRequestFromCollection(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()
	col := s.CreateCollection("A", "")
	test.Ok(t, s.AddRequestToCollection(req.ID, col.ID))

	test.Ok(t, s.RemoveRequestFromCollection(req.ID, col.ID))

	got, _ := s.Collection(col.ID)
	test.Equal(t, len(got.Requests), 0)
	detached, _ := s.Request(req.ID)
	test.Equal(t, detached.CollectionID, "")
}

func TestRemoveCollectionDetaches(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()
	col := s.CreateCollection("A", "")
	test.Ok(t, s.AddRequestToCollection(req.ID, col.ID))
	test.Ok(t, s.SetActiveCollection(col.ID))

	test.Ok(t, s.RemoveCollection(col.ID))

	test.Equal(t, len(s.Collections()), 0)
	test.Equal(t, len(s.Requests()), 2)

	kept, err := s.Request(req.ID)
	test.Ok(t, err)
	test.Equal(t, kept.CollectionID, "")

	_, ok := s.ActiveCollection()
	test.True(t, !ok)

	test.True(t, errors.Is(s.RemoveCollection(col.ID), store.ErrCollectionNotFound))
}

func TestUpdateCollection(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()
	col := s.CreateCollection("A", "")
	test.Ok(t, s.AddRequestToCollection(req.ID, col.ID))

	err := s.UpdateCollection(col.ID, func(c *model.Collection) {
		c.Name = "Renamed"
		c.Description = "desc"
		c.Requests = nil
	})
	test.Ok(t, err)

	got, _ := s.Collection(col.ID)
	test.Equal(t, got.Name, "Renamed")
	test.Equal(t, got.Description, "desc")
	test.Equal(t, len(got.Requests), 1)
}

func TestCollectionRequestsInIndexOrder(t *testing.T) {
	s := newStore(t)
	first := s.NewRequest()
	second := s.NewRequest()
	col := s.CreateCollection("A", "")
	test.Ok(t, s.AddRequestToCollection(second.ID, col.ID))
	test.Ok(t, s.AddRequestToCollection(first.ID, col.ID))

	members, err := s.CollectionRequests(col.ID)
	test.Ok(t, err)
	test.Equal(t, len(members), 2)
	test.Equal(t, members[0].ID, second.ID)
	test.Equal(t, members[1].ID, first.ID)
}

func TestSnapshotRestore(t *testing.T) {
	s := newStore(t)
	req := s.NewRequest()
	col := s.CreateCollection("A", "")
	test.Ok(t, s.AddRequestToCollection(req.ID, col.ID))
	test.Ok(t, s.SetActiveCollection(col.ID))

	ws := s.Snapshot()

	restored := newStore(t)
	restored.Restore(ws)

	test.Equal(t, len(restored.Requests()), 2)
	test.Equal(t, restored.ActiveRequest().ID, req.ID)
	active, ok := restored.ActiveCollection()
	test.True(t, ok)
	test.Equal(t, active.ID, col.ID)
}

func TestRestoreRepairsState(t *testing.T) {
	s := newStore(t)
	s.Restore(model.Workspace{})
	test.Equal(t, len(s.Requests()), 1)

	s.Restore(model.Workspace{
		Requests:         []model.Request{model.NewRequest("r1"), model.NewRequest("r2")},
		ActiveRequest:    "gone",
		ActiveCollection: "gone",
	})
	test.Equal(t, s.ActiveRequest().ID, "r1")
	_, ok := s.ActiveCollection()
	test.True(t, !ok)
}

func TestImportFromCurl(t *testing.T) {
	s := newStore(t)

	req, err := s.ImportFromCurl("curl -X POST https://a.b/users")
	test.Ok(t, err)
	test.Equal(t, req.Method, "POST")
	test.Equal(t, len(s.Requests()), 2)

	_, err = s.ImportFromCurl("curl -X POST")
	test.True(t, errors.Is(err, importer.ErrNoURL))
	test.Equal(t, len(s.Requests()), 2)
}

func TestImportIDsNeverCollide(t *testing.T) {
	s := newStore(t)

	a, err := s.ImportFromCurl("curl https://a.b/1")
	test.Ok(t, err)
	b, err := s.ImportFromCurl("curl https://a.b/2")
	test.Ok(t, err)

	test.True(t, a.ID != b.ID, test.Context("ids from the same millisecond must differ"))
}

func TestImportFromPostman(t *testing.T) {
	s := newStore(t)
	data := `{
	  "info": {"name": "Demo"},
	  "item": [
	    {"name": "top", "request": {"method": "GET", "url": "https://a.b/top"}},
	    {"name": "folder", "item": [{"name": "nested", "request": {"method": "DELETE", "url": "https://a.b/n"}}]}
	  ]
	}`

	test.Ok(t, s.ImportFromPostman([]byte(data)))

	cols := s.Collections()
	test.Equal(t, len(cols), 1)
	test.Equal(t, cols[0].Name, "Demo")

	members, err := s.CollectionRequests(cols[0].ID)
	test.Ok(t, err)
	test.Equal(t, len(members), 2)
	test.Equal(t, members[0].Name, "top")
	test.Equal(t, members[1].Name, "nested")
	for _, m := range members {
		test.Equal(t, m.CollectionID, cols[0].ID)
	}
}

func TestImportFromPostmanFailureIsAtomic(t *testing.T) {
	s := newStore(t)
	err := s.ImportFromPostman([]byte(`[1, 2]`))

	var formatErr *importer.FormatError
	test.True(t, errors.As(err, &formatErr))
	test.Equal(t, len(s.Requests()), 1)
	test.Equal(t, len(s.Collections()), 0)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newStore(t)
	req, err := src.ImportFromCurl(`curl -X PUT 'https://a.b/x?q=1' -H 'A: b' -d '{"k": true}'`)
	test.Ok(t, err)
	col := src.CreateCollection("Col", "d")
	test.Ok(t, src.AddRequestToCollection(req.ID, col.ID))

	bundle := src.Export()
	data := mustJSON(t, bundle)

	dst := store.New()
	before := len(dst.Requests())
	test.Ok(t, dst.ImportFromJSON(data))

	test.Equal(t, len(dst.Requests()), before+len(bundle.Requests))
	test.Equal(t, len(dst.Collections()), 1)

	got, err := dst.Request(req.ID)
	test.Ok(t, err)
	test.Equal(t, got.URL, "https://a.b/x")
	test.Equal(t, got.Params[0].Key, "q")
	test.Equal(t, got.Body, req.Body)
	test.Equal(t, got.CollectionID, col.ID)

	gotCol, err := dst.Collection(col.ID)
	test.Ok(t, err)
	test.Equal(t, gotCol.Name, "Col")
	test.Equal(t, gotCol.Requests[0], req.ID)
}

func TestImportFromText(t *testing.T) {
	tests := []struct {
		name     string        // Name of the test case
		text     string        // Imported text
		kind     importer.Kind // Expected classification
		requests int           // Expected number of requests after import
	}{
		{name: "curl", text: "curl https://a.b", kind: importer.KindCurl, requests: 2},
		{name: "postman", text: `{"info": {"name": "p"}, "item": [{"request": "https://a.b"}]}`, kind: importer.KindPostman, requests: 2},
		{name: "native", text: `{"requests": [{"id": "x"}, {"id": "y"}]}`, kind: importer.KindNative, requests: 3},
		{name: "url", text: "https://example.com", kind: importer.KindURL, requests: 2},
		{name: "text", text: "hello world", kind: importer.KindText, requests: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			kind, err := s.ImportFromText(tt.text)
			test.Ok(t, err)
			test.Equal(t, kind, tt.kind)
			test.Equal(t, len(s.Requests()), tt.requests)
		})
	}
}

func TestImportFromTextFallbacks(t *testing.T) {
	s := newStore(t)

	_, err := s.ImportFromText("https://example.com")
	test.Ok(t, err)
	_, err = s.ImportFromText("hello world")
	test.Ok(t, err)

	requests := s.Requests()
	url, text := requests[1], requests[2]

	test.Equal(t, url.URL, "https://example.com")
	test.Equal(t, url.BodyType, model.BodyNone)
	test.Equal(t, text.URL, "")
	test.Equal(t, text.Body, "hello world")
	test.Equal(t, text.BodyType, model.BodyRaw)
	test.True(t, url.ID != text.ID)
}

func TestImportFromTextPropagatesCurlFailure(t *testing.T) {
	s := newStore(t)
	_, err := s.ImportFromText("curl -v")

	var parseErr *importer.ParseError
	test.True(t, errors.As(err, &parseErr))
	test.Equal(t, len(s.Requests()), 1)
}
