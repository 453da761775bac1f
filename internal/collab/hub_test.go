package collab

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/inamate/facefinder/internal/document"
)

type savedSketch struct {
	id  string
	doc *document.Sketch
}

func startHub(t *testing.T, load Loader) (*Hub, chan savedSketch) {
	t.Helper()
	saved := make(chan savedSketch, 4)
	save := func(_ context.Context, sketchID string, doc *document.Sketch) error {
		saved <- savedSketch{id: sketchID, doc: doc}
		return nil
	}
	h := NewHub(load, save)
	go h.Run()
	t.Cleanup(h.Stop)
	return h, saved
}

func loadTriangle(_ context.Context, sketchID string) (*document.Sketch, error) {
	doc := triangle()
	doc.ID = sketchID
	return doc, nil
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatalf("client %s was closed", c.ClientID)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s got no message", c.ClientID)
	}
	return Message{}
}

func expectTypes(t *testing.T, c *Client, types ...string) []Message {
	t.Helper()
	msgs := make([]Message, len(types))
	for i, want := range types {
		msgs[i] = next(t, c)
		if msgs[i].Type != want {
			t.Fatalf("client %s message %d: got %q, want %q", c.ClientID, i, msgs[i].Type, want)
		}
	}
	return msgs
}

func expectClosed(t *testing.T, c *Client) {
	t.Helper()
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("client %s got a message, want closed", c.ClientID)
		}
	case <-time.After(time.Second):
		t.Fatalf("client %s was not closed", c.ClientID)
	}
}

func submit(t *testing.T, op Operation) *Message {
	t.Helper()
	payload, err := json.Marshal(OperationSubmitPayload{Operation: op})
	if err != nil {
		t.Fatal(err)
	}
	return &Message{Type: TypeOpSubmit, Payload: payload}
}

func TestHubSession(t *testing.T) {
	h, saved := startHub(t, loadTriangle)

	ada := NewClient(h, nil, "user_ada", "Ada", "sketch_1", "c1")
	h.Register(ada)
	msgs := expectTypes(t, ada, TypeWelcome, TypeDocSync, TypeFacesUpdate)

	var snap DocSyncPayload
	if err := json.Unmarshal(msgs[1].Payload, &snap); err != nil {
		t.Fatal(err)
	}
	want, _ := loadTriangle(context.Background(), "sketch_1")
	if diff := cmp.Diff(want, snap.Document); diff != "" {
		t.Errorf("doc.sync (-want +got):\n%s", diff)
	}
	if got := decodeFaces(t, msgs[2].Payload); len(got.Faces) != 1 {
		t.Errorf("initial faces: %+v", got)
	}

	bob := NewClient(h, nil, "user_bob", "Bob", "sketch_1", "c2")
	h.Register(bob)
	expectTypes(t, bob, TypeWelcome, TypeDocSync, TypeFacesUpdate)
	join := expectTypes(t, ada, TypePresenceJoin)[0]
	if join.UserID != "user_bob" {
		t.Errorf("join from %q, want user_bob", join.UserID)
	}

	h.handleMessage(ada, submit(t, Operation{
		ID:      "op_1",
		Type:    OpPointMove,
		PointID: "C",
		Point:   &document.Point{X: 0, Y: 2},
	}))

	adaMsgs := expectTypes(t, ada, TypeOpAck, TypeFacesUpdate)
	var ack OperationAckPayload
	if err := json.Unmarshal(adaMsgs[0].Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if ack.OperationID != "op_1" || ack.ServerSeq != 1 {
		t.Errorf("got ack %+v", ack)
	}

	bobMsgs := expectTypes(t, bob, TypeOpBroadcast, TypeFacesUpdate)
	var broadcast OperationBroadcastPayload
	if err := json.Unmarshal(bobMsgs[0].Payload, &broadcast); err != nil {
		t.Fatal(err)
	}
	if broadcast.UserID != "user_ada" || broadcast.Operation.PointID != "C" {
		t.Errorf("got broadcast %+v", broadcast)
	}
	if got := decodeFaces(t, bobMsgs[1].Payload); len(got.Faces) != 1 || got.Faces[0].Area != 1 {
		t.Errorf("faces after move: %+v", got)
	}

	h.handleMessage(bob, submit(t, Operation{ID: "op_2", Type: OpSegmentRemove, SegmentID: "zz"}))
	var nack OperationNackPayload
	if err := json.Unmarshal(expectTypes(t, bob, TypeOpNack)[0].Payload, &nack); err != nil {
		t.Fatal(err)
	}
	if nack.OperationID != "op_2" || nack.Reason == "" {
		t.Errorf("got nack %+v", nack)
	}

	h.Unregister(bob)
	expectClosed(t, bob)
	expectTypes(t, ada, TypePresenceLeave)

	h.Unregister(ada)
	expectClosed(t, ada)

	select {
	case s := <-saved:
		if s.id != "sketch_1" {
			t.Errorf("saved %q", s.id)
		}
		if diff := cmp.Diff(document.Point{X: 0, Y: 2}, s.doc.Points["C"]); diff != "" {
			t.Error(diff)
		}
	case <-time.After(time.Second):
		t.Fatal("sketch was not saved when the room closed")
	}
}

func TestHubPresence(t *testing.T) {
	h, _ := startHub(t, loadTriangle)

	ada := NewClient(h, nil, "user_ada", "Ada", "sketch_1", "c1")
	h.Register(ada)
	expectTypes(t, ada, TypeWelcome, TypeDocSync, TypeFacesUpdate)

	payload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 1, Y: 2}})
	h.handleMessage(ada, &Message{Type: TypePresenceUpdate, Payload: payload})

	bob := NewClient(h, nil, "user_bob", "Bob", "sketch_1", "c2")
	h.Register(bob)
	state := expectTypes(t, bob, TypeWelcome, TypeDocSync, TypeFacesUpdate, TypePresenceState)[3]

	var got PresenceStatePayload
	if err := json.Unmarshal(state.Payload, &got); err != nil {
		t.Fatal(err)
	}
	want := PresenceStatePayload{Presences: map[string]*PresencePayload{
		"user_ada": {Cursor: &CursorPos{X: 1, Y: 2}, DisplayName: "Ada"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("presence state (-want +got):\n%s", diff)
	}
}

func TestHubLoadFailure(t *testing.T) {
	h, _ := startHub(t, func(context.Context, string) (*document.Sketch, error) {
		return nil, errors.New("no such sketch")
	})

	c := NewClient(h, nil, "user_ada", "Ada", "sketch_missing", "c1")
	h.Register(c)
	expectTypes(t, c, TypeError)
	expectClosed(t, c)
}

func TestHubStopSavesDirtyRooms(t *testing.T) {
	h, saved := startHub(t, loadTriangle)

	c := NewClient(h, nil, "user_ada", "Ada", "sketch_1", "c1")
	h.Register(c)
	expectTypes(t, c, TypeWelcome, TypeDocSync, TypeFacesUpdate)

	h.handleMessage(c, submit(t, Operation{ID: "op_1", Type: OpSketchRename, Name: "renamed"}))
	expectTypes(t, c, TypeOpAck, TypeFacesUpdate)

	h.Stop()
	select {
	case s := <-saved:
		if s.doc.Name != "renamed" {
			t.Errorf("saved name %q", s.doc.Name)
		}
	default:
		t.Fatal("Stop did not save the open room")
	}
}

func TestHubCleanRoomIsNotSaved(t *testing.T) {
	h, saved := startHub(t, loadTriangle)

	c := NewClient(h, nil, "user_ada", "Ada", "sketch_1", "c1")
	h.Register(c)
	expectTypes(t, c, TypeWelcome, TypeDocSync, TypeFacesUpdate)
	h.Unregister(c)
	expectClosed(t, c)

	h.Stop()
	select {
	case s := <-saved:
		t.Errorf("unchanged sketch %q was saved", s.id)
	default:
	}
}
