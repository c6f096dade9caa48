package event

import (
	"testing"

	"github.com/voxelforge/voxelforge-server/internal/ecs"
	"go.uber.org/zap"
)

func newReplicationSystem(net Network, infos ...TypeInfo) *System {
	reg := NewTypeRegistry(zap.NewNop())
	sys := NewSystem(reg, net, nil, zap.NewNop())
	for _, info := range infos {
		if err := sys.RegisterType(info); err != nil {
			panic(err)
		}
	}
	return sys
}

func TestBroadcastSkipsInstigatorOwner(t *testing.T) {
	store := ecs.NewStore()

	instigator := store.Create(testComponent{ct: ComponentNetwork})
	target := store.Create(testComponent{ct: ComponentNetwork})

	clientA := &fakeClient{id: "a"}
	clientB := &fakeClient{id: "b"}
	clientC := &fakeClient{id: "c"}
	net := &fakeNetwork{
		mode:    ModeServer,
		clients: []Client{clientA, clientB, clientC},
		owners:  map[ecs.EntityID]Client{instigator.ID(): clientA},
	}

	sys := newReplicationSystem(net, TypeInfo{
		ID:             "core:damage",
		Type:           typeDamage,
		Policy:         PolicyBroadcast,
		SkipInstigator: true,
	})

	sub := &recordingSubsystem{name: "local"}
	sub.bindings = []Binding{
		{Event: typeDamage, Priority: PriorityNormal, Handle: sub.mark("damage")},
	}
	if err := sys.RegisterSubsystem(sub); err != nil {
		t.Fatalf("register: %v", err)
	}

	sys.Send(target, instigatedEvent{t: typeDamage, instigator: instigator.ID()})

	if len(clientA.forwarded) != 0 {
		t.Fatal("instigator's owning client must be skipped")
	}
	if len(clientB.forwarded) != 1 || len(clientC.forwarded) != 1 {
		t.Fatalf("expected forwarding to B and C, got %d and %d", len(clientB.forwarded), len(clientC.forwarded))
	}
	if len(sub.calls) != 1 {
		t.Fatalf("replication must not suppress local dispatch, got %d local calls", len(sub.calls))
	}
}

func TestBroadcastRequiresAuthority(t *testing.T) {
	store := ecs.NewStore()
	entity := store.Create(testComponent{ct: ComponentNetwork})

	client := &fakeClient{id: "a"}
	net := &fakeNetwork{mode: ModeClient, clients: []Client{client}}

	sys := newReplicationSystem(net, TypeInfo{ID: "core:damage", Type: typeDamage, Policy: PolicyBroadcast})
	sys.Send(entity, plainEvent{t: typeDamage})

	if len(client.forwarded) != 0 {
		t.Fatal("broadcast must be skipped when not hosting")
	}
}

func TestBroadcastRequiresNetworkOrBlockIdentity(t *testing.T) {
	store := ecs.NewStore()
	anonymous := store.Create()
	block := store.Create(testComponent{ct: ComponentBlock})

	client := &fakeClient{id: "a"}
	net := &fakeNetwork{mode: ModeListenServer, clients: []Client{client}}

	sys := newReplicationSystem(net, TypeInfo{ID: "core:damage", Type: typeDamage, Policy: PolicyBroadcast})

	sys.Send(anonymous, plainEvent{t: typeDamage})
	if len(client.forwarded) != 0 {
		t.Fatal("broadcast requires a network or block identity on the entity")
	}

	sys.Send(block, plainEvent{t: typeDamage})
	if len(client.forwarded) != 1 {
		t.Fatalf("block identity must satisfy broadcast, got %d forwards", len(client.forwarded))
	}
}

func TestOwnerPolicyForwardsToOwningClientOnly(t *testing.T) {
	store := ecs.NewStore()
	owned := store.Create(testComponent{ct: ComponentNetwork})
	unowned := store.Create(testComponent{ct: ComponentNetwork})

	owner := &fakeClient{id: "owner"}
	other := &fakeClient{id: "other"}
	net := &fakeNetwork{
		mode:    ModeServer,
		clients: []Client{owner, other},
		owners:  map[ecs.EntityID]Client{owned.ID(): owner},
	}

	sys := newReplicationSystem(net, TypeInfo{ID: "core:chat", Type: typeChat, Policy: PolicyOwner})

	sys.Send(owned, plainEvent{t: typeChat})
	if len(owner.forwarded) != 1 {
		t.Fatalf("expected 1 forward to owning client, got %d", len(owner.forwarded))
	}
	if len(other.forwarded) != 0 {
		t.Fatal("owner policy must not forward to other clients")
	}

	// No owner resolved: forwarding is skipped without error.
	sys.Send(unowned, plainEvent{t: typeChat})
	if len(owner.forwarded) != 1 || len(other.forwarded) != 0 {
		t.Fatal("unowned entity must not be forwarded")
	}
}

func TestServerPolicyForwardsUpstreamFromClient(t *testing.T) {
	store := ecs.NewStore()
	entity := store.Create(testComponent{ct: ComponentNetwork})
	plain := store.Create()

	upstream := &fakeUpstream{}
	net := &fakeNetwork{mode: ModeClient, upstream: upstream}

	sys := newReplicationSystem(net, TypeInfo{ID: "core:move", Type: typeMove, Policy: PolicyServer})

	sys.Send(entity, plainEvent{t: typeMove})
	if len(upstream.forwarded) != 1 {
		t.Fatalf("expected 1 upstream forward, got %d", len(upstream.forwarded))
	}

	sys.Send(plain, plainEvent{t: typeMove})
	if len(upstream.forwarded) != 1 {
		t.Fatal("server policy requires a network identity component")
	}
}

func TestServerPolicySkippedOnHost(t *testing.T) {
	store := ecs.NewStore()
	entity := store.Create(testComponent{ct: ComponentNetwork})

	upstream := &fakeUpstream{}
	net := &fakeNetwork{mode: ModeServer, upstream: upstream}

	sys := newReplicationSystem(net, TypeInfo{ID: "core:move", Type: typeMove, Policy: PolicyServer})
	sys.Send(entity, plainEvent{t: typeMove})

	if len(upstream.forwarded) != 0 {
		t.Fatal("server policy must be a no-op on an authoritative host")
	}
}

func TestUnreplicatedEventNeverTouchesNetwork(t *testing.T) {
	store := ecs.NewStore()
	entity := store.Create(testComponent{ct: ComponentNetwork})

	client := &fakeClient{id: "a"}
	net := &fakeNetwork{mode: ModeServer, clients: []Client{client}}

	sys := newReplicationSystem(net, TypeInfo{ID: "core:interact", Type: typeInteract})
	sys.Send(entity, plainEvent{t: typeInteract})

	if len(client.forwarded) != 0 {
		t.Fatal("events without a replication policy must stay local")
	}
}
