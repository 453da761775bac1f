package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/sketch"
)

const saveTimeout = 10 * time.Second

// Loader returns the latest stored sketch for a room that is opening.
type Loader func(ctx context.Context, sketchID string) (*document.Sketch, error)

// Saver stores the sketch of a room with unsaved operations.
type Saver func(ctx context.Context, sketchID string, doc *document.Sketch) error

type Room struct {
	sketchID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *DocumentState
}

func NewRoom(sketchID string, state *DocumentState) *Room {
	return &Room{
		sketchID: sketchID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    state,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sketchID -> room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	load Loader
	save Saver
	opts []sketch.Option
}

// NewHub creates a hub that opens rooms with load and persists them with
// save. opts are passed to every face solve.
func NewHub(load Loader, save Saver, opts ...sketch.Option) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		load:       load,
		save:       save,
		opts:       opts,
	}
}

// Run processes joins and leaves until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.saveAll()
			return
		}
	}
}

// Stop saves every room with unsaved operations and stops Run. It blocks
// until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SketchID]
	if !ok {
		doc, err := h.load(context.Background(), client.SketchID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load sketch", "error", err, "sketch", client.SketchID)
			client.Send(errorMessage("sketch could not be loaded"))
			client.close()
			return
		}
		room = NewRoom(client.SketchID, NewDocumentState(doc, h.opts...))
		h.rooms[client.SketchID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, UserID: client.UserID})
	client.Send(&Message{Type: TypeWelcome, SketchID: client.SketchID, Payload: welcome})

	snap := room.state.Sync()
	syncPayload, _ := json.Marshal(snap)
	client.Send(&Message{Type: TypeDocSync, SketchID: client.SketchID, Seq: snap.ServerSeq, Payload: syncPayload})
	client.Send(&Message{Type: TypeFacesUpdate, SketchID: client.SketchID, Seq: snap.ServerSeq, Payload: room.state.FacesPayload()})

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.SketchID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "sketch", client.SketchID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SketchID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.SketchID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.SketchID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "sketch", client.SketchID)
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
	slog.Info("saved open sketches", "rooms", len(rooms))
}

func (h *Hub) saveRoom(room *Room) {
	doc, ok := room.state.TakeDirty()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.save(ctx, room.sketchID, doc); err != nil {
		room.state.MarkDirty()
		slog.Error("save sketch", "error", err, "sketch", room.sketchID)
		return
	}
	slog.Info("saved sketch", "sketch", room.sketchID, "ops", len(room.state.OpLog()))
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) room(sketchID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[sketchID]
	return room, ok
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.SketchID)
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.SketchID, outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		sender.Send(errorMessage("invalid operation payload"))
		return
	}
	op := submit.Operation

	room, ok := h.room(sender.SketchID)
	if !ok {
		return
	}

	seq, err := room.state.ApplyOperation(op)
	if err != nil {
		slog.Debug("operation rejected", "error", err, "op", op.Type, "user", sender.UserID)
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, SketchID: sender.SketchID, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, SketchID: sender.SketchID, Seq: seq, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	h.broadcastToRoom(sender.SketchID, &Message{
		Type:     TypeOpBroadcast,
		SketchID: sender.SketchID,
		UserID:   sender.UserID,
		Seq:      seq,
		Payload:  broadcast,
	}, sender.ClientID)

	h.broadcastToRoom(sender.SketchID, &Message{
		Type:     TypeFacesUpdate,
		SketchID: sender.SketchID,
		Seq:      seq,
		Payload:  room.state.FacesPayload(),
	}, "")
}

func (h *Hub) broadcastToRoom(sketchID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sketchID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
