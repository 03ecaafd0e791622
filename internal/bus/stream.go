// Package bus implements partitioned, key-ordered topics on top of Redis
// Streams. A topic with N partitions is backed by the streams
// "{topic}:{0}" .. "{topic}:{N-1}"; a message key always hashes to the same
// partition, so per-key ordering holds end to end. Consumers read owned
// partitions under a consumer group (XREADGROUP) and acknowledge processed
// entries (XACK), giving at-least-once delivery.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Topic names a partitioned stream set.
type Topic struct {
	Name       string
	Partitions int
}

func (t Topic) stream(partition int) string {
	return fmt.Sprintf("%s:%d", t.Name, partition)
}

// Partition maps a message key to its partition.
func (t Topic) Partition(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(t.Partitions))
}

// Message is one bus entry. Data holds the JSON-encoded payload.
type Message struct {
	ID        string
	Partition int
	Key       string
	Data      []byte
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

// Publisher publishes keyed messages to a topic.
type Publisher struct {
	rdb   *redis.Client
	topic Topic
}

func NewPublisher(rdb *redis.Client, topic Topic) *Publisher {
	return &Publisher{rdb: rdb, topic: topic}
}

// Publish appends the payload to the partition owned by key.
func (p *Publisher) Publish(ctx context.Context, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	stream := p.topic.stream(p.topic.Partition(key))
	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"key": key, "data": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}

// Consumer reads a fixed set of partitions under a consumer group. Deployment
// assigns disjoint partition lists to instances of the same group, so at most
// one instance processes a partition at a time.
type Consumer struct {
	rdb        *redis.Client
	topic      Topic
	group      string
	name       string
	partitions []int
}

func NewConsumer(rdb *redis.Client, topic Topic, group, name string, partitions []int) *Consumer {
	return &Consumer{rdb: rdb, topic: topic, group: group, name: name, partitions: partitions}
}

// EnsureGroups creates the consumer group on every owned partition stream.
// Existing groups are left untouched.
func (c *Consumer) EnsureGroups(ctx context.Context) error {
	for _, p := range c.partitions {
		err := c.rdb.XGroupCreateMkStream(ctx, c.topic.stream(p), c.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create group %s on %s: %w", c.group, c.topic.stream(p), err)
		}
	}
	return nil
}

// ReadBatch blocks up to block and returns at most count new messages across
// the owned partitions. An empty batch means the wait timed out.
func (c *Consumer) ReadBatch(ctx context.Context, count int, block time.Duration) ([]Message, error) {
	streams := make([]string, 0, len(c.partitions)*2)
	for _, p := range c.partitions {
		streams = append(streams, c.topic.stream(p))
	}
	for range c.partitions {
		streams = append(streams, ">")
	}

	res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  streams,
		Count:    int64(count),
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s/%s: %w", c.topic.Name, c.group, err)
	}

	var out []Message
	for _, stream := range res {
		partition := partitionOf(stream.Stream)
		for _, entry := range stream.Messages {
			msg := Message{ID: entry.ID, Partition: partition}
			if k, ok := entry.Values["key"].(string); ok {
				msg.Key = k
			}
			if d, ok := entry.Values["data"].(string); ok {
				msg.Data = []byte(d)
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

// Ack acknowledges processed messages. Dropped items are acked too: the drop
// is the terminal outcome, not a redelivery request.
func (c *Consumer) Ack(ctx context.Context, msgs ...Message) error {
	byPartition := make(map[int][]string)
	for _, m := range msgs {
		byPartition[m.Partition] = append(byPartition[m.Partition], m.ID)
	}
	for p, ids := range byPartition {
		if err := c.rdb.XAck(ctx, c.topic.stream(p), c.group, ids...).Err(); err != nil {
			return fmt.Errorf("xack %s: %w", c.topic.stream(p), err)
		}
	}
	return nil
}

func partitionOf(stream string) int {
	idx := strings.LastIndex(stream, ":")
	if idx < 0 {
		return 0
	}
	var p int
	fmt.Sscanf(stream[idx+1:], "%d", &p)
	return p
}
