package report

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunCacheComputeOnce(t *testing.T) {
	cache := NewRunCache()
	var calls int32

	compute := func() (*AvailabilityBundle, error) {
		atomic.AddInt32(&calls, 1)
		return &AvailabilityBundle{HostsWithPing: 7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle, err := cache.Availability(compute)
			if err != nil {
				t.Errorf("Availability() error = %v", err)
				return
			}
			if bundle.HostsWithPing != 7 {
				t.Errorf("结果不一致: %+v", bundle)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("期望仅计算 1 次, 实际 %d", got)
	}
}

func TestRunCacheErrorIsSticky(t *testing.T) {
	cache := NewRunCache()
	calls := 0

	wantErr := errors.New("gateway indisponível")
	compute := func() ([]SLARow, error) {
		calls++
		return nil, wantErr
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.PrevMonthSLA(compute); !errors.Is(err, wantErr) {
			t.Fatalf("期望黏性错误, 实际 %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("失败结果也应缓存, 计算次数 %d", calls)
	}
}

func TestRunCacheTrafficKeyedByInterfaceSet(t *testing.T) {
	cache := NewRunCache()
	calls := 0

	compute := func() (*TrafficBundle, error) {
		calls++
		return &TrafficBundle{}, nil
	}

	cache.Traffic([]string{"Gi0/1", "Gi0/2"}, compute)
	// 顺序不同，同一集合，命中缓存
	cache.Traffic([]string{"Gi0/2", "Gi0/1"}, compute)
	if calls != 1 {
		t.Errorf("顺序无关的接口集合应命中同一键, 计算次数 %d", calls)
	}

	// 不同集合，另起一键
	cache.Traffic([]string{"Gi0/3"}, compute)
	if calls != 2 {
		t.Errorf("不同接口集合应各自计算, 计算次数 %d", calls)
	}

	// 空集合与非空集合不同键
	cache.Traffic(nil, compute)
	if calls != 3 {
		t.Errorf("空集合应独立成键, 计算次数 %d", calls)
	}
}

func TestInterfaceSetKey(t *testing.T) {
	if got := InterfaceSetKey(nil); got != "all" {
		t.Errorf("空集合键应为 all, 实际 %q", got)
	}
	a := InterfaceSetKey([]string{"b", "a"})
	b := InterfaceSetKey([]string{"a", "b"})
	if a != b {
		t.Errorf("键应与顺序无关: %q vs %q", a, b)
	}
}
