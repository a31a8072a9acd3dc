package userinput

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

func rect(x, y, w, h float64) scene.AbsoluteConvexPolygon {
	return scene.AbsoluteConvexPolygon{Vertices: []scene.Vector{
		{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h},
	}}
}

func ball(x, y, r float64) scene.CircleWithPosition {
	return scene.CircleWithPosition{Position: scene.Vector{X: x, Y: y}, Radius: r}
}

func testScene() *scene.Scene {
	return &scene.Scene{
		Width:  256,
		Height: 256,
		Bodies: []scene.Body{
			scene.BuildBox(100, 0, 50, 50, 0, false),
			scene.BuildCircle(30, 200, 10, false),
		},
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		in        scene.UserInput
		allow     bool
		wantCount int
		wantGood  bool
	}{
		{name: "free ball", in: scene.UserInput{Balls: []scene.CircleWithPosition{ball(200, 200, 5)}}, wantCount: 1, wantGood: true},
		{name: "ball in box", in: scene.UserInput{Balls: []scene.CircleWithPosition{ball(120, 20, 5)}}, wantCount: 0},
		{name: "ball grazing box", in: scene.UserInput{Balls: []scene.CircleWithPosition{ball(125, 53, 5)}}, wantCount: 0},
		{name: "ball near circle", in: scene.UserInput{Balls: []scene.CircleWithPosition{ball(45, 200, 8)}}, wantCount: 0},
		{name: "occluded allowed", in: scene.UserInput{Balls: []scene.CircleWithPosition{ball(120, 20, 5)}}, allow: true, wantCount: 1},
		{name: "free polygon", in: scene.UserInput{Polygons: []scene.AbsoluteConvexPolygon{rect(180, 100, 20, 20)}}, wantCount: 1, wantGood: true},
		{name: "polygon over box", in: scene.UserInput{Polygons: []scene.AbsoluteConvexPolygon{rect(140, 40, 20, 20)}}, wantCount: 0},
		{name: "polygon over circle", in: scene.UserInput{Polygons: []scene.AbsoluteConvexPolygon{rect(35, 190, 20, 20)}}, wantCount: 0},
		{
			name: "clockwise polygon dropped",
			in: scene.UserInput{Polygons: []scene.AbsoluteConvexPolygon{{Vertices: []scene.Vector{
				{X: 180, Y: 100}, {X: 180, Y: 120}, {X: 200, Y: 120}, {X: 200, Y: 100},
			}}}},
			allow:     true,
			wantCount: 0,
		},
		{
			name: "polygon over accepted ball",
			in: scene.UserInput{
				Balls:    []scene.CircleWithPosition{ball(200, 200, 10)},
				Polygons: []scene.AbsoluteConvexPolygon{rect(195, 195, 20, 20)},
			},
			wantCount: 1,
		},
		{name: "points inside", in: scene.UserInput{FlattenedPoints: []int32{0, 0, 255, 255}}, wantGood: true},
		{name: "point outside", in: scene.UserInput{FlattenedPoints: []int32{10, 256}}},
		{name: "negative point", in: scene.UserInput{FlattenedPoints: []int32{-1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := testScene()
			bodies, good, err := Merge(&tt.in, sc.Bodies, Options{AllowOcclusions: tt.allow}, sc.Height, sc.Width)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			if len(bodies) != tt.wantCount {
				t.Fatalf("got %d bodies, want %d", len(bodies), tt.wantCount)
			}
			if good != tt.wantGood {
				t.Fatalf("good = %v, want %v", good, tt.wantGood)
			}
			for _, b := range bodies {
				if !b.Dynamic() {
					t.Fatalf("user body %+v is not dynamic", b)
				}
			}
		})
	}
}

func TestMergeSmallCanvas(t *testing.T) {
	const height, width = 7, 6
	box := []scene.Body{scene.BuildBox(1, 1, 2, 3, 0, false)}
	tests := []struct {
		name      string
		ball      scene.CircleWithPosition
		wantCount int
		wantGood  bool
	}{
		{name: "ball on box corner", ball: ball(3, 3, 1), wantCount: 0, wantGood: false},
		{name: "ball clear of box", ball: ball(5, 5, 1), wantCount: 1, wantGood: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scene.UserInput{Balls: []scene.CircleWithPosition{tt.ball}}
			bodies, good, err := Merge(&in, box, Options{}, height, width)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			if len(bodies) != tt.wantCount || good != tt.wantGood {
				t.Fatalf("got %d bodies good=%v, want %d good=%v", len(bodies), good, tt.wantCount, tt.wantGood)
			}
		})
	}
}

func TestMergeOddPoints(t *testing.T) {
	in := scene.UserInput{FlattenedPoints: []int32{1, 2, 3}}
	if _, _, err := Merge(&in, nil, Options{}, 256, 256); !errors.Is(err, ErrOddPointList) {
		t.Fatalf("err = %v, want ErrOddPointList", err)
	}
}

func TestKeepSpaceMargin(t *testing.T) {
	sc := testScene()
	in := scene.UserInput{Balls: []scene.CircleWithPosition{ball(125, 60, 5)}}

	_, good, err := Merge(&in, sc.Bodies, Options{}, sc.Height, sc.Width)
	if err != nil || !good {
		t.Fatalf("without margin: good=%v err=%v", good, err)
	}
	_, good, err = Merge(&in, sc.Bodies, Options{KeepSpace: true, Margin: 10}, sc.Height, sc.Width)
	if err != nil || good {
		t.Fatalf("with margin: good=%v err=%v", good, err)
	}
	_, good, _ = Merge(&in, sc.Bodies, Options{Margin: 10}, sc.Height, sc.Width)
	if !good {
		t.Fatal("margin applied without KeepSpace")
	}
}

func TestAddToSceneStatus(t *testing.T) {
	sc := testScene()
	in := scene.UserInput{Balls: []scene.CircleWithPosition{ball(200, 200, 5), ball(120, 20, 5)}}
	if err := AddToScene(sc, &in, Options{}); err != nil {
		t.Fatalf("AddToScene: %v", err)
	}
	if sc.UserInputStatus != scene.UserInputHadOcclusions {
		t.Fatalf("status = %v", sc.UserInputStatus)
	}
	if len(sc.UserInputBodies) != 1 || sc.UserInputBodies[0].ShapeType != scene.ShapeBall {
		t.Fatalf("user bodies = %+v", sc.UserInputBodies)
	}
	if sc.UserInputBodies[0].Diameter != 10 {
		t.Fatalf("diameter = %v", sc.UserInputBodies[0].Diameter)
	}
}

func TestHasOcclusionsLeavesTask(t *testing.T) {
	tk := &task.Task{Scene: *testScene()}
	in := scene.UserInput{Balls: []scene.CircleWithPosition{ball(120, 20, 5)}}
	got, err := HasOcclusions(tk, &in, Options{AllowOcclusions: true})
	if err != nil {
		t.Fatalf("HasOcclusions: %v", err)
	}
	if !got {
		t.Fatal("expected occlusion")
	}
	if len(tk.Scene.UserInputBodies) != 0 {
		t.Fatal("task scene was modified")
	}
}

func TestBuild(t *testing.T) {
	in := Build(
		[][2]int32{{1, 2}, {3, 4}},
		[]float64{0, 0, 10, 0, 10, 10, 0, 10, 99},
		[]float64{5, 6, 7, 1},
	)
	if len(in.FlattenedPoints) != 4 || in.FlattenedPoints[3] != 4 {
		t.Fatalf("points = %v", in.FlattenedPoints)
	}
	if len(in.Polygons) != 1 || len(in.Polygons[0].Vertices) != 4 {
		t.Fatalf("polygons = %+v", in.Polygons)
	}
	if len(in.Balls) != 1 || in.Balls[0].Radius != 7 {
		t.Fatalf("balls = %+v", in.Balls)
	}
}

func TestReadPointsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.txt")
	if err := os.WriteFile(path, []byte("# header\n1,2\n\n 30 , 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPointsFile(path)
	if err != nil {
		t.Fatalf("ReadPointsFile: %v", err)
	}
	if len(got) != 2 || got[1] != [2]int32{30, 40} {
		t.Fatalf("points = %v", got)
	}

	bad := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(bad, []byte("1;2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPointsFile(bad); err == nil {
		t.Fatal("expected error for malformed line")
	}
}
