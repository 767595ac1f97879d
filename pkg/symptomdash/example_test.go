package symptomdash_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Prabal729/disease-2/internal/testdata"
	"github.com/Prabal729/disease-2/pkg/symptomdash"
)

func Example() {
	root, err := os.MkdirTemp("", "symptomdash-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)
	if err := testdata.WriteProject(root); err != nil {
		log.Fatal(err)
	}

	d, err := symptomdash.New(symptomdash.WithRoot(root))
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	p, err := d.Predict(context.Background(), "fever", "cough", "headache")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Disease:", p.Disease)
	// Output:
	// Disease: Flu
}
