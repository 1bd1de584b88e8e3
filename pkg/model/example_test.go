package model_test

import (
	"fmt"

	"github.com/matzehuels/snapstack/pkg/model"
)

func ExampleBlockBuilder() {
	// A statement block with a previous and a next connection.
	b := model.NewBlockBuilder("move").
		WithPreviousConnection().
		WithNextConnection().
		MustBuild()

	fmt.Println("Name:", b.Name())
	fmt.Println("Previous:", b.PreviousConnection() != nil)
	fmt.Println("Output connection:", b.OutputConnection() != nil)
	// Output:
	// Name: move
	// Previous: true
	// Output connection: false
}

func ExampleConnection_Connect() {
	// Chain two statement blocks: move → turn
	move := model.NewBlockBuilder("move").
		WithPreviousConnection().
		WithNextConnection().
		MustBuild()
	turn := model.NewBlockBuilder("turn").
		WithPreviousConnection().
		WithNextConnection().
		MustBuild()

	if err := move.NextConnection().Connect(turn.PreviousConnection()); err != nil {
		fmt.Println("connect:", err)
	}

	fmt.Println("Next of move:", move.NextBlock().Name())
	fmt.Println("Root of turn:", turn.RootBlock().Name())
	// Output:
	// Next of move: turn
	// Root of turn: move
}

func ExampleWorkspace() {
	// Two detached chains fold into one when connected.
	ws := model.NewWorkspace()
	move := model.NewBlockBuilder("move").
		WithPreviousConnection().
		WithNextConnection().
		MustBuild()
	turn := model.NewBlockBuilder("turn").
		WithPreviousConnection().
		WithNextConnection().
		MustBuild()
	_ = ws.AddBlockTree(move)
	_ = ws.AddBlockTree(turn)

	fmt.Println("Blocks:", ws.BlockCount())
	fmt.Println("Top level:", len(ws.TopBlocks()))

	_ = move.NextConnection().Connect(turn.PreviousConnection())
	fmt.Println("Top level after connect:", len(ws.TopBlocks()))
	// Output:
	// Blocks: 2
	// Top level: 2
	// Top level after connect: 1
}

func ExampleConnection_ConnectShadow() {
	// A value slot renders its shadow only while nothing real occupies it.
	host := model.NewBlockBuilder("repeat").
		WithInput(model.NewValueInput("TIMES", "number")).
		MustBuild()
	shadow := model.NewBlockBuilder("number").
		WithShadow().
		WithOutputConnection("number").
		MustBuild()

	slot := host.Inputs()[0].Connection()
	if err := slot.ConnectShadow(shadow.OutputConnection()); err != nil {
		fmt.Println("connect shadow:", err)
	}

	fmt.Println("Shadow present:", host.Inputs()[0].ConnectedShadowBlock() != nil)
	fmt.Println("Real present:", host.Inputs()[0].ConnectedBlock() != nil)
	// Output:
	// Shadow present: true
	// Real present: false
}
