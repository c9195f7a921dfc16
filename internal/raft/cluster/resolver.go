package cluster

import (
	"fmt"
	"sync"

	"google.golang.org/grpc/resolver"
)

const raftScheme = "raft"

// memberDirectory maps member IDs to their dial addresses and notifies the gRPC resolvers
// watching an ID when its address changes. Member identity is stable but addresses may only
// become known once a member has bound its listener (ports are often picked by the OS), so
// transports dial "raft:///<id>" up front and the directory delivers the address when it lands.
type memberDirectory struct {
	mu       sync.RWMutex
	records  map[MemberID]MemberAddress
	watchers map[MemberID]map[*directoryResolver]struct{}
}

func newMemberDirectory() *memberDirectory {
	return &memberDirectory{
		records:  make(map[MemberID]MemberAddress),
		watchers: make(map[MemberID]map[*directoryResolver]struct{}),
	}
}

// set stores the address for id and pushes it to every active resolver watching that id.
func (d *memberDirectory) set(id MemberID, addr MemberAddress) {
	d.mu.Lock()
	d.records[id] = addr
	watchers := d.watchers[id]
	d.mu.Unlock()

	// Push after unlocking: UpdateState may call back into ResolveNow.
	for w := range watchers {
		w.push()
	}
}

func (d *memberDirectory) lookup(id MemberID) (MemberAddress, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	addr, ok := d.records[id]
	return addr, ok
}

func (d *memberDirectory) watch(r *directoryResolver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := d.watchers[r.id]
	if set == nil {
		set = make(map[*directoryResolver]struct{})
		d.watchers[r.id] = set
	}
	set[r] = struct{}{}
}

func (d *memberDirectory) unwatch(r *directoryResolver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if set, ok := d.watchers[r.id]; ok {
		delete(set, r)
		if len(set) == 0 {
			delete(d.watchers, r.id)
		}
	}
}

// sharedDirectory backs the process-wide "raft" scheme. gRPC registers resolver builders per
// scheme per process, so every Transport in the process shares this directory; each Transport
// reaches it through its directory field rather than this var.
var sharedDirectory = newMemberDirectory()

// directoryBuilder implements resolver.Builder for the "raft" scheme.
type directoryBuilder struct {
	dir *memberDirectory
}

func (directoryBuilder) Scheme() string { return raftScheme }

func (b directoryBuilder) Build(target resolver.Target, cc resolver.ClientConn, _ resolver.BuildOptions) (resolver.Resolver, error) {
	id := MemberID(target.Endpoint())
	if id == "" {
		// With the triple-slash form some gRPC versions carry the endpoint in URL.Path.
		if p := target.URL.Path; len(p) > 0 {
			if p[0] == '/' {
				p = p[1:]
			}
			id = MemberID(p)
		}
	}
	if id == "" {
		return nil, fmt.Errorf("raft resolver: empty target endpoint: %+v", target)
	}

	r := &directoryResolver{id: id, dir: b.dir, cc: cc}
	b.dir.watch(r)
	r.push()
	return r, nil
}

// directoryResolver serves one gRPC channel, feeding it the watched member's current address.
type directoryResolver struct {
	id  MemberID
	dir *memberDirectory
	cc  resolver.ClientConn
}

func (r *directoryResolver) ResolveNow(resolver.ResolveNowOptions) { r.push() }

func (r *directoryResolver) Close() { r.dir.unwatch(r) }

func (r *directoryResolver) push() {
	addr, ok := r.dir.lookup(r.id)
	if !ok || addr == "" {
		// No address yet; gRPC keeps the channel idle and retries via ResolveNow.
		_ = r.cc.UpdateState(resolver.State{Addresses: nil})
		return
	}
	_ = r.cc.UpdateState(resolver.State{
		Addresses: []resolver.Address{{Addr: string(addr)}},
	})
}

func init() {
	resolver.Register(directoryBuilder{dir: sharedDirectory})
}
