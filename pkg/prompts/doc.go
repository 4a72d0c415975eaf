// Package prompts loads prompt templates and fills their placeholders.
//
// A template is a JSON file with a .txt extension:
//
//	{
//	  "name": "Describe",
//	  "system_prompt": "You describe {type} files.",
//	  "user_prompt": "Describe this:\n{context}"
//	}
//
// {type} and {context} are the only values supplied; any other placeholder
// is left in the output unchanged.
package prompts
