package observability

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	t.Run("NewMetrics", func(t *testing.T) {
		if m == nil {
			t.Fatal("NewMetrics returned nil")
		}
		if m.BuildsTotal == nil {
			t.Error("BuildsTotal not initialized")
		}
		if m.BuildDuration == nil {
			t.Error("BuildDuration not initialized")
		}
		if m.VectorsInserted == nil {
			t.Error("VectorsInserted not initialized")
		}
		if m.GraphSize == nil {
			t.Error("GraphSize not initialized")
		}
	})

	t.Run("RecordBuild", func(t *testing.T) {
		m.RecordBuild(500 * time.Millisecond)
		m.RecordBuild(2 * time.Second)
	})

	t.Run("RecordBuildError", func(t *testing.T) {
		m.RecordBuildError("vamana")
		m.RecordBuildError("ivf")
	})

	t.Run("RecordSearch", func(t *testing.T) {
		m.RecordSearch("vamana", 5*time.Millisecond, 10)
		m.RecordSearch("ivf", 2*time.Millisecond, 5)
		for i := 1; i <= 50; i += 10 {
			m.RecordSearch("vamana", time.Microsecond*time.Duration(i), i)
		}
	})

	t.Run("RecordInsertDelete", func(t *testing.T) {
		m.RecordInsert(1)
		m.RecordInsert(100)
		m.RecordDelete(1)
		m.RecordDelete(10)
	})

	t.Run("RecordConsolidateCompact", func(t *testing.T) {
		m.RecordConsolidate(50 * time.Millisecond)
		m.RecordConsolidate(250 * time.Millisecond)
		m.RecordCompact()
	})

	t.Run("UpdateGraphShape", func(t *testing.T) {
		m.UpdateGraphShape("default", 1000, 64000)
		m.UpdateGraphShape("default", 0, 0)
	})

	t.Run("UpdateIVFClusterSizes", func(t *testing.T) {
		m.UpdateIVFClusterSizes("default", 10, 500)
	})

	t.Run("RecordWorkerCrash", func(t *testing.T) {
		m.RecordWorkerCrash()
	})
}

func TestConcurrentMetricUpdates(t *testing.T) {
	m := NewMetrics()
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				m.RecordSearch("vamana", time.Millisecond, j)
				m.RecordInsert(1)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
