package config

import "testing"

func TestLoadConfigRejectsNonPositivePartitionCount(t *testing.T) {
	for _, count := range []string{"0", "-3"} {
		t.Setenv("BUS_PARTITION_COUNT", count)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("BUS_PARTITION_COUNT=%s accepted, want error", count)
		}
	}
}

func TestLoadConfigDefaultsToOwningEveryPartition(t *testing.T) {
	t.Setenv("BUS_PARTITION_COUNT", "3")
	t.Setenv("BUS_PARTITIONS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.BusPartitions) != 3 {
		t.Fatalf("got partitions %v, want all 3 owned", cfg.BusPartitions)
	}
	for i, p := range cfg.BusPartitions {
		if p != i {
			t.Errorf("partition slot %d holds %d", i, p)
		}
	}
}

func TestLoadConfigRejectsOutOfRangePartition(t *testing.T) {
	t.Setenv("BUS_PARTITION_COUNT", "2")
	t.Setenv("BUS_PARTITIONS", "0,2")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("partition 2 accepted with only 2 partitions configured")
	}
}
