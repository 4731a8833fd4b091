package cmd

import (
	"net/http"
	"reflect"
	"testing"
	"text/scanner"
)

func TestGenFlag_Set(t *testing.T) {
	testCases := []struct {
		Name   string
		Arg    string
		OutDir string
		Opts   map[string]interface{}
		Err    string
	}{
		{
			Name:   "AbsPathDir",
			Arg:    "/testdir",
			OutDir: "/testdir",
			Opts:   map[string]interface{}{},
		},
		{
			Name:   "RelPathDir",
			Arg:    "testdir/a",
			OutDir: "testdir/a",
			Opts:   map[string]interface{}{},
		},
		{
			Name:   "RelPathDir-2",
			Arg:    "../testdir/a",
			OutDir: "../testdir/a",
			Opts:   map[string]interface{}{},
		},
		{
			Name:   "NoDir",
			Arg:    "testOpt:",
			OutDir: ".",
			Opts:   map[string]interface{}{"testOpt": true},
		},
		{
			Name: "MalformedOpts",
			Arg:  "testOpts=:",
			Err:  "gqlc-perl: unexpected character in generator option, testOpts, value: :",
		},
		{
			Name: "MixedTypes",
			Arg:  `testOpt=1,testOpt="a":`,
			Err:  "gqlc-perl: generator option testOpt mixes value types",
		},
		{
			Name:   "FalseBoolOpt",
			Arg:    "testBoolOpt=false:",
			OutDir: ".",
			Opts:   map[string]interface{}{"testBoolOpt": false},
		},
		{
			Name:   "TrueBoolOpt",
			Arg:    "testBoolOpt=true:",
			OutDir: ".",
			Opts:   map[string]interface{}{"testBoolOpt": true},
		},
		{
			Name:   "MultiInt",
			Arg:    "testInts=1,testInts=2,testInts=3:",
			OutDir: ".",
			Opts:   map[string]interface{}{"testInts": []int64{1, 2, 3}},
		},
		{
			Name:   "MultiFloat",
			Arg:    "testFloats=1.0,testFloats=2.0,testFloats=3.0:",
			OutDir: ".",
			Opts:   map[string]interface{}{"testFloats": []float64{1, 2, 3}},
		},
		{
			Name:   "MultiString",
			Arg:    `testStrings="1",testStrings="2",testStrings="3":`,
			OutDir: ".",
			Opts:   map[string]interface{}{"testStrings": []string{"1", "2", "3"}},
		},
		{
			Name:   "MultiBool",
			Arg:    "testBools=true,testBools=false,testBools=true",
			OutDir: ".",
			Opts:   map[string]interface{}{"testBools": []bool{true, false, true}},
		},
		{
			Name:   "MultiIdent",
			Arg:    "testIdents=one,testIdents=two,testIdents=three:",
			OutDir: ".",
			Opts:   map[string]interface{}{"testIdents": []string{"one", "two", "three"}},
		},
		{
			Name:   "PackageName",
			Arg:    `packageName="My::Client":lib/My`,
			OutDir: "lib/My",
			Opts:   map[string]interface{}{"packageName": "My::Client"},
		},
		{
			Name:   "DottedKeys",
			Arg:    `scalars.Date="DateTime",scalars.ID="Int|Str":out`,
			OutDir: "out",
			Opts:   map[string]interface{}{"scalars.Date": "DateTime", "scalars.ID": "Int|Str"},
		},
		{
			Name:   "RawString",
			Arg:    "filename=`Client.pm`:out",
			OutDir: "out",
			Opts:   map[string]interface{}{"filename": "Client.pm"},
		},
		{
			Name:   "CleanDir",
			Arg:    "descriptions:out/./lib/",
			OutDir: "out/lib",
			Opts:   map[string]interface{}{"descriptions": true},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(subT *testing.T) {
			var (
				geners  []*generator
				outDirs []string
			)
			f := genFlag{
				name:    "test_out",
				opts:    make(map[string]interface{}),
				geners:  &geners,
				outDirs: &outDirs,
				fp:      &fparser{Scanner: new(scanner.Scanner)},
			}

			err := f.Set(testCase.Arg)
			if err != nil && testCase.Err == "" {
				subT.Errorf("unexpected error from flag parsing: %s:%s", testCase.Arg, err)
				return
			}
			if testCase.Err != "" {
				if err == nil {
					subT.Errorf("expected error: %s", testCase.Err)
					return
				}

				if err.Error() != testCase.Err {
					subT.Errorf("expected error %q but got: %q", testCase.Err, err)
				}
				return
			}

			if len(geners) != 1 || len(outDirs) != 1 {
				subT.Errorf("expected a single generator to be selected")
				return
			}

			if testCase.OutDir != outDirs[0] || testCase.OutDir != geners[0].outDir {
				subT.Logf("mismatched outdirs: %s:%s", testCase.OutDir, outDirs[0])
				subT.Fail()
				return
			}

			if !reflect.DeepEqual(f.opts, testCase.Opts) {
				subT.Errorf("mismatched options: %v:%v", testCase.Opts, f.opts)
			}
		})
	}
}

func TestGenFlag_SetOpt(t *testing.T) {
	var geners []*generator
	f := genFlag{
		name:   "test_out",
		opts:   make(map[string]interface{}),
		geners: &geners,
		fp:     &fparser{Scanner: new(scanner.Scanner)},
		isOpt:  true,
	}

	if err := f.Set(`packageName="My::Client",descriptions`); err != nil {
		t.Error(err)
		return
	}
	if len(geners) != 0 {
		t.Error("option flags must not select a generator")
	}

	ex := map[string]interface{}{"packageName": "My::Client", "descriptions": true}
	if !reflect.DeepEqual(f.opts, ex) {
		t.Errorf("mismatched options: %v:%v", ex, f.opts)
	}

	err := f.Set("a:/out")
	if err == nil || err.Error() != "gqlc-perl: unexpected output directory in generator options" {
		t.Errorf("expected output directory error but got: %v", err)
	}
}

func TestHeaderFlag_Set(t *testing.T) {
	testCases := []struct {
		Name string
		Args []string
		Ex   http.Header
		Err  bool
	}{
		{
			Name: "Single",
			Args: []string{"Authorization=Bearer abc"},
			Ex:   http.Header{"Authorization": {"Bearer abc"}},
		},
		{
			Name: "Pairs",
			Args: []string{"a=1,b=2"},
			Ex:   http.Header{"A": {"1"}, "B": {"2"}},
		},
		{
			Name: "Repeated",
			Args: []string{"a=1", "a=2"},
			Ex:   http.Header{"A": {"1", "2"}},
		},
		{
			Name: "Quoted",
			Args: []string{`"a=1"`},
			Ex:   http.Header{"A": {"1"}},
		},
		{
			Name: "Malformed",
			Args: []string{"a"},
			Err:  true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(subT *testing.T) {
			h := make(http.Header)
			f := &headerFlag{value: &h}

			var err error
			for _, arg := range testCase.Args {
				if err = f.Set(arg); err != nil {
					break
				}
			}
			if testCase.Err {
				if err == nil {
					subT.Error("expected error")
				}
				return
			}
			if err != nil {
				subT.Error(err)
				return
			}

			if !reflect.DeepEqual(h, testCase.Ex) {
				subT.Errorf("mismatched headers: %v:%v", testCase.Ex, h)
			}
		})
	}
}
