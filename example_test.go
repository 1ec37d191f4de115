package tagmux_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/dep2p/go-tagmux"
)

func ExampleNew() {
	ctx := context.Background()
	m, agg := tagmux.New[string, string](16, 4)

	l, err := m.Send(ctx, "session-1", "hello")
	if err != nil {
		panic(err)
	}

	tx, rx := l.Split()
	v, _ := rx.Recv(ctx)
	_ = tx.Send(ctx, strings.ToUpper(v))
	_ = l.Close()
	_ = m.Close()

	for tag, reply := range agg.All(ctx) {
		fmt.Println(tag, reply)
	}
	// Output: session-1 HELLO
}

func ExampleNewSink() {
	ctx := context.Background()
	s, _ := tagmux.NewSink[int, string](4, 4, 4)
	defer s.Close()

	_ = s.Send(ctx, 7, "a")
	_ = s.Send(ctx, 7, "b")

	st, err := s.Accept(ctx)
	if err != nil {
		panic(err)
	}
	for range 2 {
		v, _ := st.Recv(ctx)
		fmt.Println(st.Tag(), v)
	}
	// Output:
	// 7 a
	// 7 b
}

func ExampleMap() {
	m := tagmux.NewMap[string, int]()

	slot := m.InsertOrReplace("k", 1)
	m.InsertOrReplace("k", 2)

	fmt.Println(slot.IsValid())
	fmt.Println(slot.Release())
	v, _ := m.Get("k")
	fmt.Println(v)
	// Output:
	// false
	// false
	// 2
}
