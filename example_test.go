package datascope_test

import (
	"context"
	"fmt"
	"log"

	"github.com/goccy/go-json"

	"github.com/nao1215/datascope"
	"github.com/nao1215/datascope/domain/model"
)

// ExampleParse shows delimiter detection and how blank rows and header
// names are handled.
func ExampleParse() {
	content := " name ,age,name\nalice,30\n\n bob ,25,b\n"

	delimiter := datascope.DetectDelimiter(content)
	page, err := datascope.Parse(content, delimiter)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(page.Headers)
	for _, row := range page.Rows {
		fmt.Printf("%q %q %q\n", row.Get(0).ToText(), row.Get(1).ToText(), row.Get(2).ToText())
	}
	fmt.Println("skipped:", page.SkippedRows)

	// Output:
	// [name age name_1]
	// "alice" "30" ""
	// " bob " "25" "b"
	// skipped: 1
}

// ExampleSession shows paging through a dataset that is larger than one page.
func ExampleSession() {
	cfg := datascope.DefaultConfig()
	cfg.PageCapacity = 2

	s := datascope.NewSession(cfg)
	ctx := context.Background()
	if _, err := s.LoadContent(ctx, "inline", "city;temp\nOslo;3\nRome;14\nCairo;25\n"); err != nil {
		log.Fatal(err)
	}

	plan := s.Pagination()
	fmt.Println("pages:", plan.TotalPages)
	for _, info := range plan.Pages {
		page, err := s.LoadPage(ctx, info.PageIndex, nil)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(info.PageIndex, page.Column("city"))
	}

	// Output:
	// pages: 2
	// 0 [Oslo Rome]
	// 1 [Cairo]
}

// ExampleBuildChartData shows building chart series from parsed rows.
func ExampleBuildChartData() {
	page, err := datascope.Parse("x,y\n1,10\n2,oops\n3,30\n", ',')
	if err != nil {
		log.Fatal(err)
	}

	result, err := datascope.BuildChartData(page.Rows, page.Headers, datascope.ChartRequest{
		XColumn:        "x",
		YColumns:       []string{"y"},
		AxisType:       model.AxisTypeValue,
		AutoDownsample: true,
		MaxPoints:      500,
	})
	if err != nil {
		log.Fatal(err)
	}

	points, err := json.Marshal(result.Series[0].Points)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(points))
	fmt.Println("dropped:", result.DroppedRows)

	// Output:
	// [[1,10],[3,30]]
	// dropped: 1
}

func ExampleClampPoints() {
	fmt.Println(datascope.ClampPoints(0))
	fmt.Println(datascope.ClampPoints(10))
	fmt.Println(datascope.ClampPoints(1234.9))
	fmt.Println(datascope.ClampPoints(1e6))

	// Output:
	// 4000
	// 200
	// 1234
	// 20000
}

func ExampleEvenlySampleIndices() {
	fmt.Println(datascope.EvenlySampleIndices(10, 4))
	// Output: [0 3 6 9]
}
