package netinfo

import (
	"encoding/json"
	"net"
	"os"
	"sort"

	"github.com/golang/glog"
)

// Network is one entry of the preferred-network list. Entries with a
// non-negative priority are tried in ascending priority order against the
// active interfaces; at most one entry should carry a negative priority
// and names the fallback address to advertise when nothing matches.
type Network struct {
	Priority int    `json:"priority"`
	Name     string `json:"name,omitempty"`
	CIDR     string `json:"cidr,omitempty"`
	Addr     string `json:"addr,omitempty"`
}

// Preferred is a priority-ordered preferred-network list.
type Preferred []Network

// LoadPreferred reads a preferred-network list from a JSON file. A missing
// file is not an error and yields an empty list.
func LoadPreferred(path string) (Preferred, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var pref Preferred
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, err
	}
	sort.SliceStable(pref, func(i, j int) bool {
		return pref[i].Priority < pref[j].Priority
	})
	return pref, nil
}

// PickIP selects the address to advertise: the first preferred entry
// matching an active interface, then the fallback entry, then the first
// active interface address when the list is empty.
func (p Preferred) PickIP() string {
	return pickIP(p, activeInterfaces())
}

func (p Preferred) matches(nw Network, info ifaceInfo) string {
	if nw.Name != "" && nw.Name != info.name {
		return ""
	}
	if nw.CIDR == "" {
		if nw.Name == info.name {
			return info.ips[0].String()
		}
		return ""
	}
	_, subnet, err := net.ParseCIDR(nw.CIDR)
	if err != nil {
		glog.Warningf("bad cidr %q: %v", nw.CIDR, err)
		return ""
	}
	for _, ip := range info.ips {
		if subnet.Contains(ip) {
			return ip.String()
		}
	}
	return ""
}

func (p Preferred) pick(infos []ifaceInfo) string {
	for _, nw := range p {
		if nw.Priority < 0 {
			continue
		}
		for _, info := range infos {
			if ip := p.matches(nw, info); ip != "" {
				return ip
			}
		}
	}
	return ""
}

func (p Preferred) fallback() string {
	for _, nw := range p {
		if nw.Priority < 0 {
			return nw.Addr
		}
	}
	return ""
}
