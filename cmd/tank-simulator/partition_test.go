// v1
// cmd/tank-simulator/partition_test.go

package main

import (
	"sort"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestMurmur2JavaCompatVectors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want uint32
	}{
		{name: "empty", key: "", want: 0x106e08d9},
		{name: "tank a", key: "tank-A", want: 0x2d6d0242},
		{name: "tank b", key: "tank-B", want: 0x2b2d8293},
		{name: "long tank id", key: "aeration-basin-3", want: 0x00c75207},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := murmur2JavaCompat([]byte(tc.key))
			if got != tc.want {
				t.Fatalf("murmur2JavaCompat(%q)=%#x want %#x", tc.key, got, tc.want)
			}
			if got&0x80000000 != 0 {
				t.Fatalf("murmur2JavaCompat(%q) produced non-positive hash %#x", tc.key, got)
			}
		})
	}
}

// The control service balances command batches with kafka-go's Java-compatible
// murmur2 balancer keyed by tank id; the consumer side must land on the same
// partition or commands never arrive.
func TestConsumerPartitionMatchesProducerBalancer(t *testing.T) {
	ids := []int{0, 1, 2}
	balancer := kafka.Murmur2Balancer{}

	for _, tank := range []string{"tank-A", "tank-B", "aeration-basin-3"} {
		consumed := ids[int(murmur2JavaCompat([]byte(tank))%uint32(len(ids)))]
		produced := balancer.Balance(kafka.Message{Key: []byte(tank)}, ids...)
		if produced != consumed {
			t.Fatalf("tank %s: producer partition %d, consumer partition %d", tank, produced, consumed)
		}
	}
}

func TestPartitionIndexDeterministic(t *testing.T) {
	ids := []int{0, 1, 2, 3}
	key := "tank-A"

	idx := int(murmur2JavaCompat([]byte(key)) % uint32(len(ids)))
	for i := 0; i < 10; i++ {
		next := int(murmur2JavaCompat([]byte(key)) % uint32(len(ids)))
		if next != idx {
			t.Fatalf("partition index changed between runs: got %d want %d", next, idx)
		}
	}
}

func TestPartitionSelectionSortsBeforeIndexing(t *testing.T) {
	// ReadPartitions returns partitions in broker order; the consumer must
	// sort before indexing or the tank would hop partitions across restarts.
	unsorted := []int{3, 1, 0, 2}
	key := "tank-B"

	idx := int(murmur2JavaCompat([]byte(key)) % uint32(len(unsorted)))
	sort.Ints(unsorted)
	first := unsorted[idx]

	reshuffled := []int{2, 0, 3, 1}
	sort.Ints(reshuffled)
	if second := reshuffled[idx]; second != first {
		t.Fatalf("partition selection depends on input order: %d vs %d", first, second)
	}
}
