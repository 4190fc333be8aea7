package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool names.
const (
	toolTransformStory = "transform_story"
	toolComponentMeta  = "component_meta"
	toolStoryPreview   = "story_preview"
)

// defaultStoryFile names code passed without a filename.
const defaultStoryFile = "Story.stories.vue"

func transformStoryTool() mcp.Tool {
	return mcp.NewTool(toolTransformStory,
		mcp.WithDescription("Transform a *.stories.vue file into a Storybook CSF module, or inject metadata into a plain .vue component"),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source of the .vue file")),
		mcp.WithString("filename", mcp.Description("File name used to pick the transform and name the source map (default Story.stories.vue)")),
		mcp.WithBoolean("source_map", mcp.Description("Include the source map in the response")),
	)
}

func componentMetaTool() mcp.Tool {
	return mcp.NewTool(toolComponentMeta,
		mcp.WithDescription("Props, events, slots and models declared by a .vue component on disk"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the .vue file")),
	)
}

func storyPreviewTool() mcp.Tool {
	return mcp.NewTool(toolStoryPreview,
		mcp.WithDescription("Reduce a *.stories.vue file to a component rendering its first story"),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source of the stories file")),
		mcp.WithString("filename", mcp.Description("File name (default Story.stories.vue)")),
	)
}
