package spec

// Kind is the 1-byte discriminant selecting a message variant.
type Kind uint8

const (
	KindBreak Kind = iota
	KindLinkStat
	KindEthtoolStat
	KindEthtoolFlags
	KindEthtoolSettings
	KindEthtoolLinkModesSupported
	KindEthtoolLinkModesAdvertising
	KindEthtoolLinkModesLPAdvertising
	KindDumpIfinfo
	KindCarrier
	KindSpeed
	KindIfinfo
	KindIfa
	KindIfa6
	KindDumpFibinfo
	KindFibEntry
	KindFib6Entry
	KindNeighUpdate
	KindChangeUpperXid
	KindNetnsAdd
	KindNetnsDel

	// NumKinds is one past the last assigned kind.
	NumKinds
)

var kindNames = [NumKinds]string{
	KindBreak:                         "Break",
	KindLinkStat:                      "LinkStat",
	KindEthtoolStat:                   "EthtoolStat",
	KindEthtoolFlags:                  "EthtoolFlags",
	KindEthtoolSettings:               "EthtoolSettings",
	KindEthtoolLinkModesSupported:     "EthtoolLinkModesSupported",
	KindEthtoolLinkModesAdvertising:   "EthtoolLinkModesAdvertising",
	KindEthtoolLinkModesLPAdvertising: "EthtoolLinkModesLPAdvertising",
	KindDumpIfinfo:                    "DumpIfinfo",
	KindCarrier:                       "Carrier",
	KindSpeed:                         "Speed",
	KindIfinfo:                        "Ifinfo",
	KindIfa:                           "Ifa",
	KindIfa6:                          "Ifa6",
	KindDumpFibinfo:                   "DumpFibinfo",
	KindFibEntry:                      "FibEntry",
	KindFib6Entry:                     "Fib6Entry",
	KindNeighUpdate:                   "NeighUpdate",
	KindChangeUpperXid:                "ChangeUpperXid",
	KindNetnsAdd:                      "NetnsAdd",
	KindNetnsDel:                      "NetnsDel",
}

// Known reports whether k is assigned in this protocol generation.
func (k Kind) Known() bool { return k < NumKinds }

// String returns a human-readable name for the kind
func (k Kind) String() string {
	if k.Known() {
		return kindNames[k]
	}
	return "Unknown"
}

// Kinds returns every assigned kind in wire order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, NumKinds)
	for k := KindBreak; k < NumKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Class groups kinds by the consumer that cares about them.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassBreak
	ClassInterface
	ClassAddress
	ClassFib
	ClassNeighbor
	ClassNetns
	ClassStat
	ClassControl
)

func (c Class) String() string {
	switch c {
	case ClassBreak:
		return "break"
	case ClassInterface:
		return "interface"
	case ClassAddress:
		return "address"
	case ClassFib:
		return "fib"
	case ClassNeighbor:
		return "neighbor"
	case ClassNetns:
		return "netns"
	case ClassStat:
		return "stat"
	case ClassControl:
		return "control"
	default:
		return "unknown"
	}
}

// Class returns the class of k.
func (k Kind) Class() Class {
	switch k {
	case KindBreak:
		return ClassBreak
	case KindChangeUpperXid,
		KindEthtoolFlags,
		KindEthtoolLinkModesSupported,
		KindEthtoolLinkModesAdvertising,
		KindEthtoolLinkModesLPAdvertising,
		KindEthtoolSettings,
		KindIfinfo,
		KindCarrier,
		KindSpeed:
		return ClassInterface
	case KindIfa, KindIfa6:
		return ClassAddress
	case KindFibEntry, KindFib6Entry:
		return ClassFib
	case KindNeighUpdate:
		return ClassNeighbor
	case KindNetnsAdd, KindNetnsDel:
		return ClassNetns
	case KindLinkStat, KindEthtoolStat:
		return ClassStat
	case KindDumpIfinfo, KindDumpFibinfo:
		return ClassControl
	default:
		return ClassUnknown
	}
}
