// Package netinfo selects the network address a server advertises in its
// connection URI.
package netinfo

import (
	"net"

	"github.com/golang/glog"
)

// ifaceInfo is the view of one network interface used for selection.
type ifaceInfo struct {
	name string
	ips  []net.IP
}

func activeInterfaces() []ifaceInfo {
	ifaces, err := net.Interfaces()
	if err != nil {
		glog.Errorf("list interfaces: %v", err)
		return nil
	}
	var infos []ifaceInfo
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		info := ifaceInfo{name: iface.Name}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipnet.IP.To4(); ip != nil && !ip.IsLoopback() {
				info.ips = append(info.ips, ip)
			}
		}
		if len(info.ips) > 0 {
			infos = append(infos, info)
		}
	}
	return infos
}

// AdvertiseIP returns the IPv4 address of the first active non-loopback
// interface, or "" when no interface qualifies.
func AdvertiseIP() string {
	return pickIP(nil, activeInterfaces())
}

func pickIP(pref Preferred, infos []ifaceInfo) string {
	if ip := pref.pick(infos); ip != "" {
		return ip
	}
	if len(pref) > 0 {
		return pref.fallback()
	}
	for _, info := range infos {
		return info.ips[0].String()
	}
	return ""
}
