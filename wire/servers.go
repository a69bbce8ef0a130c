package wire

import "github.com/tinysqlio/memvfs/cluster"

// GetServers decodes a run of (id uint64, address text) pairs, stopping
// when an address read signals END_OF_MESSAGE. An id read that reaches
// END_OF_MESSAGE means the address is missing and is reported as a Proto
// error. This mirrors message__body_get_servers, which keeps appending
// entries until the body itself runs out.
func (m *Message) GetServers() (cluster.ServerList, *Error) {
	var servers cluster.ServerList
	for {
		id, done, err := m.GetUint64()
		if err != nil {
			return nil, newErr(Proto, "missing server id: %s", err.Message)
		}
		if done {
			return nil, newErr(Proto, "missing server address")
		}

		addr, done, err := m.GetText()
		if err != nil {
			return nil, err
		}
		servers = append(servers, cluster.Server{ID: id, Address: addr})
		if done {
			return servers, nil
		}
	}
}

// PutServers encodes a server list as a run of (id, address) pairs, in
// order, matching message__body_put_servers.
func (m *Message) PutServers(servers cluster.ServerList) *Error {
	for _, s := range servers {
		if err := m.PutUint64(s.ID); err != nil {
			return err
		}
		if err := m.PutText(s.Address); err != nil {
			return err
		}
	}
	return nil
}
