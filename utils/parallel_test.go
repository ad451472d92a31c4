package utils

import (
	"context"
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, totalSize := range []int{1, 3, ParallelFactor, ParallelFactor + 1, 1000} {
		seen := make([]int, totalSize)
		var mu sync.Mutex
		groups := 0
		err := GroupWorkParallel(
			context.Background(),
			totalSize,
			func(numGroups int) {
				groups = numGroups
			},
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				test.That(t, to-from, test.ShouldEqual, groupSize)
				return func(memberNum, workNum int) {
					mu.Lock()
					seen[workNum]++
					mu.Unlock()
				}, nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, totalSize)
		for _, count := range seen {
			test.That(t, count, test.ShouldEqual, 1)
		}
	}
}

func TestGroupWorkParallelEmptyAndCanceled(t *testing.T) {
	called := false
	err := GroupWorkParallel(context.Background(), 0, nil, func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
		called = true
		return nil, nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, called, test.ShouldBeFalse)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ParallelForEach(ctx, 10, func(workNum int) {
		called = true
	})
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, called, test.ShouldBeFalse)
}

func TestParallelForEach(t *testing.T) {
	results := make([]int, 57)
	err := ParallelForEach(context.Background(), len(results), func(workNum int) {
		results[workNum] = workNum * workNum
	})
	test.That(t, err, test.ShouldBeNil)
	for i, r := range results {
		test.That(t, r, test.ShouldEqual, i*i)
	}
}

func TestGroupWorkParallelPanic(t *testing.T) {
	results := make([]int, 20)
	err := ParallelForEach(context.Background(), len(results), func(workNum int) {
		if workNum == len(results)-1 {
			panic("bad work item")
		}
		results[workNum] = 1
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "panicked: bad work item")
	// only the last group stops early
	test.That(t, results[0], test.ShouldEqual, 1)
	test.That(t, results[len(results)-2], test.ShouldEqual, 1)
}
