package ipdb

import (
	"bytes"
	"net"
	"sort"
	"sync"
)

func init() {
	for _, db := range []*IPRangeDB{Loopback, Private, LinkLocal, Multicast} {
		db.Init()
		sort.Sort(db)
	}
}

var (
	Loopback = &IPRangeDB{DB: []*IPRange{
		{Value: "127.0.0.0/8"},
		{Value: "::1/128"},
	}}
	Private = &IPRangeDB{DB: []*IPRange{
		{Value: "10.0.0.0/8"},
		{Value: "100.64.0.0/10"},
		{Value: "172.16.0.0/12"},
		{Value: "192.168.0.0/16"},
		{Value: "fc00::/7"},
	}}
	LinkLocal = &IPRangeDB{DB: []*IPRange{
		{Value: "169.254.0.0/16"},
		{Value: "fe80::/10"},
	}}
	Multicast = &IPRangeDB{DB: []*IPRange{
		{Value: "224.0.0.0/4"},
		{Value: "ff00::/8"},
	}}
)

const (
	ScopeLoopback  = "loopback"
	ScopePrivate   = "private"
	ScopeLinkLocal = "link-local"
	ScopeMulticast = "multicast"
	ScopePublic    = "public"
	ScopeInvalid   = "invalid"
	ScopeAny       = "unspecified"
)

// Scope classifies the textual address ip. Text that is not an address yields
// ScopeInvalid.
func Scope(ip string) string {
	target := net.ParseIP(ip)
	switch {
	case target == nil:
		return ScopeInvalid
	case target.IsUnspecified():
		return ScopeAny
	case Loopback.Contains(target):
		return ScopeLoopback
	case Private.Contains(target):
		return ScopePrivate
	case LinkLocal.Contains(target):
		return ScopeLinkLocal
	case Multicast.Contains(target):
		return ScopeMulticast
	}
	return ScopePublic
}

// IPRange bounds are kept in 16-byte form so IPv4 and IPv6 ranges sort in
// one table.
type IPRange struct {
	Value string
	min   net.IP
	max   net.IP
}

func (i *IPRange) init() {
	_, inet, err := net.ParseCIDR(i.Value)
	if err != nil {
		return
	}

	base := inet.IP
	max := make(net.IP, len(inet.Mask))
	for k := range inet.Mask {
		max[k] = base[k] | ^inet.Mask[k]
	}

	i.min = base.To16()
	i.max = max.To16()
}

type IPRangeDB struct {
	sync.RWMutex
	DB []*IPRange
}

func (db *IPRangeDB) Init() {
	for i := range db.DB {
		db.DB[i].init()
	}
}

func (db *IPRangeDB) Len() int {
	return len(db.DB)
}

func (db *IPRangeDB) Less(i, j int) bool {
	return bytes.Compare(db.DB[i].min, db.DB[j].min) == -1
}

func (db *IPRangeDB) Swap(i, j int) {
	db.DB[i], db.DB[j] = db.DB[j], db.DB[i]
}

func (db *IPRangeDB) Contains(target net.IP) bool {
	db.RLock()
	defer db.RUnlock()

	if target = target.To16(); target == nil {
		return false
	}

	i := sort.Search(len(db.DB), func(i int) bool {
		return bytes.Compare(target, db.DB[i].min) == -1
	})

	i -= 1
	if i < 0 {
		return false
	}

	return bytes.Compare(target, db.DB[i].min) >= 0 && bytes.Compare(target, db.DB[i].max) <= 0
}
