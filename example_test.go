package haystack_test

import (
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/haystack"
)

func Example() {
	dir, err := os.MkdirTemp("", "haystack-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := haystack.Open(dir, haystack.WithMaxStackSize(16))
	if err != nil {
		log.Fatal(err)
	}

	for _, photo := range []string{"cat.jpg bytes", "dog.jpg", "owl.jpg"} {
		loc, err := store.Write([]byte(photo))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(loc)
	}

	data, err := store.Read(1, 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(data))

	// Output:
	// 0/0@0+13
	// 1/0@0+7
	// 1/1@7+7
	// owl.jpg
}

func ExampleStore_Recover() {
	dir, err := os.MkdirTemp("", "haystack-recover")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := haystack.Open(dir)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := store.Write([]byte("complete")); err != nil {
		log.Fatal(err)
	}

	// Simulate a crash in the middle of an index append.
	f, err := os.OpenFile(dir+"/0000000000.index", os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		log.Fatal(err)
	}
	_, _ = f.Write(make([]byte, 8))
	_ = f.Close()

	report, err := store.Recover()
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range report.Repairs {
		fmt.Println(r.Shard, r.Action, r.IndexBefore, "->", r.IndexAfter)
	}

	// Output:
	// 0 trim-index 32 -> 24
}
