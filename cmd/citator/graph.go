package citator

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/soundprediction/citator/pkg/citegraph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Analyze an exported citation graph",
	Long: `Analyze a citation graph document produced by the /api/v1/graph/export
endpoint or by Client.ExportGraph, without a running server.`,
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats <graph.json>",
	Short: "Print summary statistics for a graph document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(args[0])
		if err != nil {
			return err
		}

		stats := g.Statistics()
		fmt.Printf("Nodes:           %d\n", stats.NodeCount)
		fmt.Printf("Edges:           %d\n", stats.EdgeCount)
		fmt.Printf("Isolated nodes:  %d\n", stats.IsolatedNodeCount)
		if stats.MostCitedID != "" {
			fmt.Printf("Most cited:      %s (%d citations)\n", stats.MostCitedID, stats.MostCitedCount)
		}
		fmt.Printf("Avg citations:   %.2f\n", stats.AvgIncomingEdges)
		return nil
	},
}

var graphPageRankCmd = &cobra.Command{
	Use:   "pagerank <graph.json>",
	Short: "Compute PageRank over a graph document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(args[0])
		if err != nil {
			return err
		}

		top, _ := cmd.Flags().GetInt("top")
		asJSON, _ := cmd.Flags().GetBool("json")

		scores := g.PageRank()
		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(scores)
		}

		type ranked struct {
			id    string
			score float64
		}
		list := make([]ranked, 0, len(scores))
		for id, score := range scores {
			list = append(list, ranked{id, score})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].score != list[j].score {
				return list[i].score > list[j].score
			}
			return list[i].id < list[j].id
		})
		if top > 0 && len(list) > top {
			list = list[:top]
		}
		for i, entry := range list {
			fmt.Printf("%3d. %-40s %8.2f\n", i+1, entry.id, entry.score)
		}
		return nil
	},
}

var graphCyclesCmd = &cobra.Command{
	Use:   "cycles <graph.json> <start-id>",
	Short: "Detect citation cycles reachable from a node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(args[0])
		if err != nil {
			return err
		}

		cycles, err := g.DetectCycles(args[1])
		if err != nil {
			return err
		}
		if len(cycles) == 0 {
			fmt.Println("No cycles found")
			return nil
		}
		for i, cycle := range cycles {
			fmt.Printf("Cycle %d:", i+1)
			for _, id := range cycle {
				fmt.Printf(" %s", id)
			}
			fmt.Println()
		}
		return nil
	},
}

var graphInfluenceCmd = &cobra.Command{
	Use:   "influence <graph.json> <node-id>",
	Short: "Compute the influence score of a node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(args[0])
		if err != nil {
			return err
		}

		score, err := g.InfluenceScore(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%.2f\n", score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphStatsCmd)
	graphCmd.AddCommand(graphPageRankCmd)
	graphCmd.AddCommand(graphCyclesCmd)
	graphCmd.AddCommand(graphInfluenceCmd)

	graphPageRankCmd.Flags().Int("top", 20, "Show only the top N nodes")
	graphPageRankCmd.Flags().Bool("json", false, "Emit the full score map as JSON")
}

func loadGraph(path string) (*citegraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}

	g := citegraph.New(citegraph.Options{})
	if err := g.FromJSON(data); err != nil {
		return nil, err
	}
	return g, nil
}
