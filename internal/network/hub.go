package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"github.com/voxelforge/voxelforge-server/internal/event"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sendBuffer = 64

// errSendBufferFull is returned when a slow client's send queue overflows;
// the replication hook logs and keeps going.
var errSendBufferFull = errors.New("client send buffer full")

var errClientGone = errors.New("client disconnected")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Inbound is an envelope received from a connected client, for a higher layer
// to decode and submit to the event engine.
type Inbound struct {
	ClientID string
	Envelope Envelope
}

// Hub is the host-side network layer: it accepts websocket clients, tracks
// which client owns which entity, and implements event.Network for the
// dispatch engine's replication hook.
type Hub struct {
	logger *zap.Logger
	types  *event.TypeRegistry
	mode   event.NetworkMode
	// passwordHash is the bcrypt hash of the join password; empty means open.
	passwordHash []byte

	mu      sync.RWMutex
	clients map[string]*remoteClient
	owners  map[ecs.EntityID]string

	inbound chan Inbound
}

// NewHub creates a hub for the given host mode (ModeServer or
// ModeListenServer). joinPassword may be empty for an open server.
func NewHub(mode event.NetworkMode, joinPassword string, types *event.TypeRegistry, logger *zap.Logger) (*Hub, error) {
	var hash []byte
	if joinPassword != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(joinPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}
	return &Hub{
		logger:       logger,
		types:        types,
		mode:         mode,
		passwordHash: hash,
		clients:      make(map[string]*remoteClient),
		owners:       make(map[ecs.EntityID]string),
		inbound:      make(chan Inbound, 256),
	}, nil
}

// Mode reports the hub's host mode.
func (h *Hub) Mode() event.NetworkMode { return h.mode }

// Owner resolves the client owning the given entity, or nil.
func (h *Hub) Owner(id ecs.EntityID) event.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clientID, ok := h.owners[id]
	if !ok {
		return nil
	}
	c, ok := h.clients[clientID]
	if !ok {
		return nil
	}
	return c
}

// Clients lists the connected clients.
func (h *Hub) Clients() []event.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]event.Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Server always returns nil: a host has no upstream connection.
func (h *Hub) Server() event.Upstream { return nil }

// SetOwner records that a client owns an entity, making it the target of
// owner-only replication and the skip-instigator check.
func (h *Hub) SetOwner(id ecs.EntityID, clientID string) {
	h.mu.Lock()
	h.owners[id] = clientID
	h.mu.Unlock()
}

// ClearOwner drops an entity's ownership record.
func (h *Hub) ClearOwner(id ecs.EntityID) {
	h.mu.Lock()
	delete(h.owners, id)
	h.mu.Unlock()
}

// Inbound exposes envelopes received from clients. Decoding them back into
// event values is the consuming layer's job.
func (h *Hub) Inbound() <-chan Inbound { return h.inbound }

// ServeWS upgrades an HTTP request into a client connection. The client must
// send a join request as its first message.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	var join joinRequest
	if err := conn.ReadJSON(&join); err != nil {
		h.logger.Warn("bad join request", zap.Error(err))
		conn.Close()
		return
	}
	if len(h.passwordHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(join.Password)); err != nil {
			conn.WriteJSON(joinResponse{OK: false, Reason: "invalid password"})
			conn.Close()
			h.logger.Info("client rejected: invalid password", zap.String("name", join.Name))
			return
		}
	}

	client := &remoteClient{
		id:     uuid.NewString(),
		name:   join.Name,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: h.logger,
		hub:    h,
	}
	if err := conn.WriteJSON(joinResponse{OK: true, ClientID: client.id}); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.logger.Info("client connected",
		zap.String("client_id", client.id),
		zap.String("name", client.name),
	)

	go client.writePump()
	go h.readPump(client)
}

func (h *Hub) readPump(client *remoteClient) {
	defer h.drop(client)
	for {
		var env Envelope
		if err := client.conn.ReadJSON(&env); err != nil {
			return
		}
		select {
		case h.inbound <- Inbound{ClientID: client.id, Envelope: env}:
		default:
			h.logger.Warn("inbound queue full, dropping envelope",
				zap.String("client_id", client.id),
				zap.String("event_id", string(env.EventID)),
			)
		}
	}
}

func (h *Hub) drop(client *remoteClient) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
		close(client.send)
	}
	for entity, owner := range h.owners {
		if owner == client.id {
			delete(h.owners, entity)
		}
	}
	h.mu.Unlock()
	client.conn.Close()
	h.logger.Info("client disconnected", zap.String("client_id", client.id))
}

// forward encodes the event into an envelope and queues it on the client's
// send channel; the write pump ships it. The read lock keeps the enqueue from
// racing drop closing the channel.
func (h *Hub) forward(client *remoteClient, ev event.Event, entity ecs.EntityRef) error {
	env, err := encodeEnvelope(h.types, ev, entity)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.id]; !ok {
		return errClientGone
	}
	return client.enqueue(payload)
}

// remoteClient is one connected player.
type remoteClient struct {
	id     string
	name   string
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	hub *Hub
}

// ClientID implements event.Client.
func (c *remoteClient) ClientID() string { return c.id }

// Name returns the name the client joined with.
func (c *remoteClient) Name() string { return c.name }

// Forward implements event.Client.
func (c *remoteClient) Forward(ev event.Event, entity ecs.EntityRef) error {
	if c.hub != nil {
		return c.hub.forward(c, ev, entity)
	}
	return nil
}

func (c *remoteClient) enqueue(payload []byte) error {
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *remoteClient) writePump() {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.logger.Warn("write to client failed",
				zap.String("client_id", c.id),
				zap.Error(err),
			)
			return
		}
	}
}
