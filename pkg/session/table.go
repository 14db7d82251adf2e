package session

// table holds the twin fixed-capacity server/client session arrays. It
// carries no internal locking: the design note "cross-Looper access is
// structurally impossible rather than merely discouraged" is enforced by
// keeping table, and every method on it, unexported — only Manager (which
// runs exclusively on the Services Looper) ever touches it.
type table struct {
	maxSessions int
	server      []ServerSessionRecord // index 0 unused; slots are ID 1..maxSessions
	client      []ClientSessionRecord
}

func newTable(maxSessions int) *table {
	t := &table{
		maxSessions: maxSessions,
		server:      make([]ServerSessionRecord, maxSessions+1),
		client:      make([]ClientSessionRecord, maxSessions+1),
	}
	for i := range t.server {
		t.server[i].ID = ID(i)
		t.client[i].ID = ID(i)
	}
	return t
}

// allocateServer walks the array top-down (spreading ids, per the
// allocation rule) and reserves the first free slot. A slot is free when
// its State is StateInit.
func (t *table) allocateServer() (*ServerSessionRecord, error) {
	for i := t.maxSessions; i >= 1; i-- {
		if t.server[i].State == StateInit {
			t.server[i].State = StateCreating
			return &t.server[i], nil
		}
	}
	return nil, ErrTableFull
}

func (t *table) serverByID(id ID) (*ServerSessionRecord, error) {
	if id == 0 || int(id) > t.maxSessions {
		return nil, ErrNotFound
	}
	r := &t.server[id]
	if r.State == StateInit {
		return nil, ErrNotFound
	}
	return r, nil
}

// serverByToken performs the O(MaxSessions) structural-equality auth-token
// lookup described by the session_from_token operation.
func (t *table) serverByToken(tok AuthToken) (*ServerSessionRecord, error) {
	for i := 1; i <= t.maxSessions; i++ {
		r := &t.server[i]
		if r.State != StateInit && r.AuthToken == tok {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (t *table) freeServer(id ID) {
	if id == 0 || int(id) > t.maxSessions {
		return
	}
	t.server[id].Clear()
}

func (t *table) allocateClient() (*ClientSessionRecord, error) {
	for i := 1; i <= t.maxSessions; i++ {
		if t.client[i].State == StateInit {
			t.client[i].State = StateCreating
			return &t.client[i], nil
		}
	}
	return nil, ErrTableFull
}

func (t *table) clientByID(id ID) (*ClientSessionRecord, error) {
	if id == 0 || int(id) > t.maxSessions {
		return nil, ErrNotFound
	}
	r := &t.client[id]
	if r.State == StateInit {
		return nil, ErrNotFound
	}
	return r, nil
}

func (t *table) freeClient(id ID) {
	if id == 0 || int(id) > t.maxSessions {
		return
	}
	t.client[id].Clear()
}

// forEachActiveServer calls fn for every occupied server slot.
func (t *table) forEachActiveServer(fn func(*ServerSessionRecord)) {
	for i := 1; i <= t.maxSessions; i++ {
		if t.server[i].State != StateInit {
			fn(&t.server[i])
		}
	}
}
