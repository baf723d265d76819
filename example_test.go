package docconv_test

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alnah/go-docconv"
)

// Example demonstrates converting a single document. Requires a
// LibreOffice-compatible engine on PATH; see WithEngineBinary to point at
// a different executable.
func Example() {
	conv, err := docconv.New()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer conv.Close()

	payload, err := os.ReadFile("report.docx")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	result, err := conv.Convert(context.Background(), "report.docx", payload)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	// Close releases the job workspace, so read the artifact first.
	defer result.Close()

	f, err := result.Open()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer f.Close()

	out, err := os.Create("report.pdf")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, f); err != nil {
		fmt.Println("error:", err)
	}
}

// Example_batch demonstrates fanning several documents over the shared
// worker pool. Outcomes align with the input order.
func Example_batch() {
	conv, err := docconv.New(docconv.WithWorkers(4))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer conv.Close()

	items := []docconv.BatchItem{
		{Filename: "a.docx", Payload: []byte("...")},
		{Filename: "b.xlsx", Payload: []byte("...")},
	}

	for i, o := range conv.ConvertBatch(context.Background(), items) {
		if o.Err != nil {
			fmt.Printf("%s: %v\n", items[i].Filename, o.Err)
			continue
		}
		fmt.Printf("%s: %d bytes in %s\n", items[i].Filename, o.Result.Size, o.Duration)
		o.Result.Close()
	}
}
