package mcp

import "github.com/mark3labs/mcp-go/mcp"

func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the WordSpark verifier version. Use this to verify connectivity."),
	)
}

func createVerifyFlowTool() mcp.Tool {
	return mcp.NewTool("verify_flow",
		mcp.WithDescription("Run the WordSpark login → dashboard → story check in a headless browser. "+
			"Saves three screenshots and returns a markdown report of each step."),
		mcp.WithString("url",
			mcp.Description("Target URL. Defaults to the configured target.url."),
		),
		mcp.WithString("driver",
			mcp.Description("Browser driver: chromedp or playwright."),
			mcp.Enum("chromedp", "playwright"),
		),
		mcp.WithString("screenshot_dir",
			mcp.Description("Directory for the screenshots."),
		),
	)
}
