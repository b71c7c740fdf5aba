package types

// MaxTopicsPerLog is the maximum number of indexed topics in a single log.
const MaxTopicsPerLog = 4

// Log represents a log event emitted during transaction execution. The
// consensus fields participate in receipt encoding and bloom filters; the
// context fields are filled in after block processing.
type Log struct {
	// Consensus fields.
	Address Address
	Topics  []Hash
	Data    []byte

	// Context fields, derived once the enclosing block is known.
	BlockNumber uint64
	BlockHash   Hash
	TxIndex     uint
	Index       uint
}

// Bloom computes the bloom filter contribution of this log alone.
func (l *Log) Bloom() Bloom {
	var bloom Bloom
	bloom.Add(l.Address.Bytes())
	for _, topic := range l.Topics {
		bloom.Add(topic.Bytes())
	}
	return bloom
}

// logRLP is the consensus wire form of a log: [address, topics, data].
type logRLP struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

func toLogRLP(logs []*Log) []logRLP {
	out := make([]logRLP, len(logs))
	for i, l := range logs {
		out[i] = logRLP{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return out
}

func fromLogRLP(in []logRLP) []*Log {
	out := make([]*Log, len(in))
	for i, l := range in {
		out[i] = &Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return out
}
