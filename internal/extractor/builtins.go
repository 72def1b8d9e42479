package extractor

// Built-in and standard-library calls are filtered here, at extraction time.
// They never become call sites, so the call resolver never sees them.

// jsBuiltinNamespaces are global objects whose member calls are noise for a
// dependency graph (console.log, Math.max, JSON.parse, ...).
var jsBuiltinNamespaces = map[string]bool{
	"console": true, "Math": true, "JSON": true, "Object": true,
	"Array": true, "String": true, "Number": true, "Boolean": true,
	"Date": true, "RegExp": true, "Error": true, "Promise": true,
	"Symbol": true, "Reflect": true, "Proxy": true, "Intl": true,
	"window": true, "document": true, "navigator": true, "history": true,
	"location": true, "localStorage": true, "sessionStorage": true,
	"process": true, "Buffer": true, "globalThis": true,
}

// jsBuiltinFunctions are bare global functions
var jsBuiltinFunctions = map[string]bool{
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
	"encodeURIComponent": true, "decodeURIComponent": true,
	"encodeURI": true, "decodeURI": true, "eval": true,
	"setTimeout": true, "setInterval": true, "clearTimeout": true,
	"clearInterval": true, "queueMicrotask": true, "fetch": true,
	"alert": true, "confirm": true, "prompt": true, "structuredClone": true,
	"require": true, "super": true,
	"String": true, "Number": true, "Boolean": true, "Array": true,
	"Object": true, "Symbol": true, "BigInt": true, "Error": true,
}

// pyBuiltinFunctions mirrors Python's builtins module, minus the exotic ones
// nobody calls in application code
var pyBuiltinFunctions = map[string]bool{
	"print": true, "len": true, "str": true, "int": true, "float": true,
	"bool": true, "list": true, "dict": true, "set": true, "tuple": true,
	"frozenset": true, "bytes": true, "bytearray": true, "range": true,
	"type": true, "isinstance": true, "issubclass": true, "super": true,
	"enumerate": true, "zip": true, "map": true, "filter": true,
	"sorted": true, "reversed": true, "sum": true, "min": true, "max": true,
	"abs": true, "round": true, "divmod": true, "pow": true,
	"open": true, "input": true, "repr": true, "format": true,
	"hash": true, "id": true, "iter": true, "next": true, "callable": true,
	"getattr": true, "setattr": true, "hasattr": true, "delattr": true,
	"vars": true, "dir": true, "globals": true, "locals": true,
	"any": true, "all": true, "ord": true, "chr": true, "hex": true,
	"oct": true, "bin": true, "exec": true, "eval": true, "compile": true,
	"object": true, "slice": true, "property": true, "staticmethod": true,
	"classmethod": true, "NotImplementedError": true, "ValueError": true,
	"TypeError": true, "KeyError": true, "RuntimeError": true,
	"Exception": true,
}
